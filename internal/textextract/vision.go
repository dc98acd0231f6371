package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// Ensure Vision implements the interface.
var _ Strategy = (*Vision)(nil)

// visionPrompt asks the model for a faithful transcription rather than
// a summary, so segmentation and tagging see the original wording.
const visionPrompt = `Transcribe all text visible in this document exactly as written.
Preserve panel names, circuit identifiers, voltage levels, ratings and table structure.
Insert the line "--- Page N ---" before each page. Output plain text only, no commentary.`

// maxVisionBytes bounds what gets sent to the provider.
const maxVisionBytes = 15 << 20

// Vision reads image-only documents through a vision-capable language
// model. It sits after the native readers in the chain so it only runs
// when structural extraction came up short.
type Vision struct {
	llm driven.LLMService
}

// NewVision creates a vision strategy. A nil service is allowed; the
// strategy then reports itself unsupported for every MIME type.
func NewVision(llm driven.LLMService) *Vision {
	return &Vision{llm: llm}
}

// Name identifies the strategy.
func (s *Vision) Name() string { return "vision" }

// Supports reports whether the MIME type is an image or a PDF.
func (s *Vision) Supports(mimeType string) bool {
	if s.llm == nil {
		return false
	}
	base := baseMIME(mimeType)
	return strings.HasPrefix(base, "image/") || base == "application/pdf"
}

// Extract sends the document to the vision model for transcription.
func (s *Vision) Extract(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) > maxVisionBytes {
		return "", fmt.Errorf("document of %d bytes exceeds vision limit: %w",
			len(data), domain.ErrInvalidInput)
	}

	text, err := s.llm.GenerateVision(ctx, visionPrompt, data, baseMIME(mimeType), driven.GenerateOptions{
		MaxTokens:   8192,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("vision transcription: %w", err)
	}
	return text, nil
}
