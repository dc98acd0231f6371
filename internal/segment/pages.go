package segment

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// DefaultPageWindow is the fixed window size used when no page markers
// or numbered headings exist in the text.
const DefaultPageWindow = 4000

// PageConfig controls the coarse page-splitting pre-pass.
type PageConfig struct {
	// WindowSize is the character size of fallback fixed windows.
	WindowSize int
}

func (c PageConfig) withDefaults() PageConfig {
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultPageWindow
	}
	return c
}

var (
	// pageMarkerRe matches standalone "Page N" / "--- Page 3 of 12 ---"
	// lines emitted by most converters.
	pageMarkerRe = regexp.MustCompile(`(?mi)^\s*(?:-{2,}\s*)?page\s+\d+(?:\s+of\s+\d+)?\s*(?:-{2,})?\s*$`)

	// headingRe matches numbered section headings like "3.2 Feeder Schedule".
	headingRe = regexp.MustCompile(`(?m)^\s*\d+(?:\.\d+)*\s+[A-Z][A-Za-z]`)
)

// pageStrategy is one way of finding logical page boundaries.
type pageStrategy struct {
	name  string
	split func(text string, cfg PageConfig) []string
}

var pageStrategies = []pageStrategy{
	{"page-marker", splitAtPageMarkers},
	{"numbered-heading", splitAtHeadings},
	{"fixed-window", splitFixedWindows},
}

// SplitPages breaks extracted text into logical pages. Strategies are
// tried in priority order: explicit page markers (including form feeds),
// numbered headings, then fixed-size windows snapped to newlines.
// For any input with non-whitespace content at least one page is returned.
func SplitPages(text string, cfg PageConfig) []domain.Page {
	cfg = cfg.withDefaults()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var pieces []string
	for _, strat := range pageStrategies {
		if pieces = strat.split(trimmed, cfg); len(pieces) > 1 {
			break
		}
	}
	if len(pieces) == 0 {
		pieces = []string{trimmed}
	}

	pages := make([]domain.Page, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: len(pages) + 1, Text: p})
	}
	if len(pages) == 0 {
		pages = append(pages, domain.Page{Number: 1, Text: trimmed})
	}
	return pages
}

// splitAtPageMarkers splits on form feeds or standalone page-marker lines.
func splitAtPageMarkers(text string, _ PageConfig) []string {
	if strings.Contains(text, "\f") {
		return strings.Split(text, "\f")
	}

	locs := pageMarkerRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	return splitAt(text, locs)
}

// splitAtHeadings splits at numbered headings when a document has no
// page markers at all (common for exported specifications).
func splitAtHeadings(text string, _ PageConfig) []string {
	locs := headingRe.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return nil
	}
	return splitAt(text, locs)
}

// splitFixedWindows cuts fixed-size windows, snapping each cut forward
// to the next newline so lines are never split across pages.
func splitFixedWindows(text string, cfg PageConfig) []string {
	if len(text) <= cfg.WindowSize {
		return nil
	}

	var pieces []string
	start := 0
	for start < len(text) {
		end := start + cfg.WindowSize
		if end >= len(text) {
			pieces = append(pieces, text[start:])
			break
		}
		if nl := strings.IndexByte(text[end:], '\n'); nl >= 0 && nl < cfg.WindowSize/4 {
			end += nl + 1
		}
		pieces = append(pieces, text[start:end])
		start = end
	}
	return pieces
}

// splitAt cuts text at the start offset of each match, keeping the
// matched line with the content that follows it. Text before the first
// match becomes its own piece.
func splitAt(text string, locs [][]int) []string {
	var pieces []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			pieces = append(pieces, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	pieces = append(pieces, text[prev:])
	return pieces
}
