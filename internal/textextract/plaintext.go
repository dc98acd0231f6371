package textextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// Ensure PlainText implements the interface.
var _ Strategy = (*PlainText)(nil)

// PlainText handles text-based formats that need no decoding beyond
// UTF-8 validation and line-ending normalisation.
type PlainText struct{}

// NewPlainText creates a plain text strategy.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Name identifies the strategy.
func (s *PlainText) Name() string { return "plaintext" }

// Supports reports whether the MIME type is a text format.
func (s *PlainText) Supports(mimeType string) bool {
	base := baseMIME(mimeType)
	switch base {
	case "text/plain", "text/markdown", "text/csv", "application/json", "application/xml", "text/xml":
		return true
	}
	return strings.HasPrefix(base, "text/")
}

// Extract validates and normalises the bytes as UTF-8 text.
func (s *PlainText) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("content is not valid UTF-8: %w", domain.ErrNoExtractableText)
	}
	text := string(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")))
	return text, nil
}

// baseMIME strips parameters like "; charset=utf-8".
func baseMIME(mimeType string) string {
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
