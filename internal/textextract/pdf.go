package textextract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Ensure PDF implements the interface.
var _ Strategy = (*PDF)(nil)

// PDF extracts text from PDF content streams. Scanned or image-only
// PDFs yield little or no text here and fall through to the vision
// strategy.
type PDF struct{}

// NewPDF creates a PDF strategy.
func NewPDF() *PDF {
	return &PDF{}
}

// Name identifies the strategy.
func (s *PDF) Name() string { return "pdf" }

// Supports reports whether the MIME type is PDF.
func (s *PDF) Supports(mimeType string) bool {
	return baseMIME(mimeType) == "application/pdf"
}

// Extract reads the PDF and pulls string operands from each page's
// content stream. Pages are separated with form feeds so downstream
// page splitting stays aligned with the PDF's own pagination.
func (s *PDF) Extract(_ context.Context, data []byte, _ string) (string, error) {
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		pages = append(pages, decodeContentText(content))
	}

	return strings.Join(pages, "\f"), nil
}

var (
	// showTextRe matches literal string operands of the Tj and '
	// show-text operators.
	showTextRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|')`)

	// showArrayRe matches TJ array operands; inner strings are pulled
	// with literalRe.
	showArrayRe = regexp.MustCompile(`\[((?:\\.|[^\\\]])*)\]\s*TJ`)

	literalRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
)

// decodeContentText pulls the text shown by one content stream. It only
// understands literal strings, which covers PDFs with standard text
// encodings. Hex strings and CID-keyed fonts come back empty and the
// page falls through to the vision strategy.
func decodeContentText(content []byte) string {
	var b strings.Builder

	for _, m := range showTextRe.FindAllSubmatch(content, -1) {
		b.WriteString(unescapePDFString(string(m[1])))
		b.WriteByte('\n')
	}
	for _, m := range showArrayRe.FindAllSubmatch(content, -1) {
		for _, inner := range literalRe.FindAllSubmatch(m[1], -1) {
			b.WriteString(unescapePDFString(string(inner[1])))
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// unescapePDFString resolves the escape sequences of a PDF literal string.
func unescapePDFString(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r', 'f', 'b':
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
