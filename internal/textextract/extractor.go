// Package textextract turns raw document bytes into plain text.
//
// Extraction runs a prioritised chain of strategies: native format
// readers first, then a vision model for image-heavy files, then a raw
// byte decode as last resort. The first strategy that produces enough
// text wins. Strategies are tagged values so the chain is configurable
// and each strategy is testable on its own.
package textextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// DefaultMinTextLength is the minimum number of characters a strategy
// must produce for its output to count as a successful extraction.
const DefaultMinTextLength = 50

// Strategy is one way of pulling text out of raw bytes.
type Strategy interface {
	// Name identifies the strategy in logs and status messages.
	Name() string

	// Supports reports whether the strategy can handle the MIME type.
	Supports(mimeType string) bool

	// Extract pulls plain text from raw bytes. Pages should be
	// separated with form feeds when the format has page structure.
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Extractor runs strategies in priority order until one yields enough text.
type Extractor struct {
	strategies []Strategy
	minLength  int
}

// New builds an extractor over the given strategies, tried in order.
func New(strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies, minLength: DefaultMinTextLength}
}

// SetMinLength overrides the minimum accepted text length.
func (e *Extractor) SetMinLength(n int) {
	if n > 0 {
		e.minLength = n
	}
}

// Extract returns the extracted text and the name of the strategy that
// produced it. When no strategy yields at least the minimum length the
// result wraps domain.ErrNoExtractableText.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("empty input: %w", domain.ErrNoExtractableText)
	}

	for _, strat := range e.strategies {
		if !strat.Supports(mimeType) {
			continue
		}

		text, err := strat.Extract(ctx, data, mimeType)
		if err != nil {
			logger.Debug("Extraction strategy %s failed: %v", strat.Name(), err)
			continue
		}

		text = strings.TrimSpace(text)
		if len(text) < e.minLength {
			logger.Debug("Extraction strategy %s produced %d chars, below minimum %d",
				strat.Name(), len(text), e.minLength)
			continue
		}

		logger.Debug("Extraction strategy %s produced %d chars", strat.Name(), len(text))
		return text, strat.Name(), nil
	}

	return "", "", fmt.Errorf("no strategy produced usable text for %s: %w",
		mimeType, domain.ErrNoExtractableText)
}
