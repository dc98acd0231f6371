package textextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Ensure HTML implements the interface.
var _ Strategy = (*HTML)(nil)

// HTML extracts visible text from HTML documents.
type HTML struct{}

// NewHTML creates an HTML strategy.
func NewHTML() *HTML {
	return &HTML{}
}

// Name identifies the strategy.
func (s *HTML) Name() string { return "html" }

// Supports reports whether the MIME type is HTML.
func (s *HTML) Supports(mimeType string) bool {
	base := baseMIME(mimeType)
	return base == "text/html" || base == "application/xhtml+xml"
}

// blockElements get a newline after their content so headings, rows and
// paragraphs stay on separate lines.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "section": true, "article": true,
}

// skipElements contain no document text.
var skipElements = map[string]bool{
	"script": true, "style": true, "head": true, "noscript": true,
}

// Extract parses the HTML and walks the tree collecting visible text.
func (s *HTML) Extract(_ context.Context, data []byte, _ string) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	walkHTML(root, &b)
	return b.String(), nil
}

func walkHTML(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skipElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, b)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteByte('\n')
	}
}
