// Package segment turns extracted document text into bounded,
// overlapping retrieval units.
//
// Splitting is two-tiered: SplitPages is a coarse pre-pass that keeps
// ingestion aligned to logical pages, and SegmentPage breaks one page
// into chunk-sized fragments. Both work through a prioritised list of
// splitting strategies tried in order, so each strategy can be tested
// independently. Output is deterministic for identical input and
// configuration.
package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// Default sizing. A fragment targets DefaultTargetSize characters and
// never exceeds twice that after the hard-split pass.
const (
	DefaultTargetSize  = 1200
	DefaultOverlap     = 200
	DefaultHardOverlap = 80
)

// Config controls fragment sizing and section-marker splitting.
type Config struct {
	// TargetSize is the soft character bound per fragment.
	TargetSize int

	// Overlap is the trailing window carried into the next fragment.
	Overlap int

	// HardOverlap is the smaller overlap used when an oversized
	// fragment is force-split on fixed windows.
	HardOverlap int

	markerRe *regexp.Regexp
}

// NewConfig builds a Config with default sizes and a section-marker
// pattern compiled from the given vocabulary words.
func NewConfig(markers []string) Config {
	cfg := Config{
		TargetSize:  DefaultTargetSize,
		Overlap:     DefaultOverlap,
		HardOverlap: DefaultHardOverlap,
	}
	if len(markers) > 0 {
		quoted := make([]string, len(markers))
		for i, m := range markers {
			quoted[i] = regexp.QuoteMeta(m)
		}
		cfg.markerRe = regexp.MustCompile(`(?i)^\s*(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.TargetSize <= 0 {
		c.TargetSize = DefaultTargetSize
	}
	if c.Overlap < 0 || c.Overlap >= c.TargetSize {
		c.Overlap = c.TargetSize / 6
	}
	if c.HardOverlap < 0 || c.HardOverlap >= c.TargetSize {
		c.HardOverlap = c.TargetSize / 15
	}
	return c
}

// Fragment is one chunk-sized piece of a page, prefixed with its page marker.
type Fragment struct {
	PageNumber int
	Content    string
}

// splitStrategy is one way of breaking page text into pieces.
// Strategies are tried in order; the first to yield more than one
// piece wins.
type splitStrategy struct {
	name  string
	split func(text string, cfg Config) []string
}

var pieceStrategies = []splitStrategy{
	{"section-marker", splitAtMarkers},
	{"blank-line", splitBlankLines},
	{"line", splitLines},
}

// SegmentPage splits one page of text into fragments. For any input
// containing non-whitespace characters it returns at least one fragment.
func SegmentPage(text string, pageNumber int, cfg Config) []Fragment {
	cfg = cfg.withDefaults()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	pieces := splitPieces(trimmed, cfg)
	bodies := accumulate(pieces, cfg)
	bodies = hardSplit(bodies, cfg)

	frags := make([]Fragment, len(bodies))
	for i, body := range bodies {
		frags[i] = Fragment{
			PageNumber: pageNumber,
			Content:    fmt.Sprintf("[Page %d] %s", pageNumber, body),
		}
	}
	return frags
}

// splitPieces runs the strategy list and falls back to the whole text
// when no strategy produces more than one piece.
func splitPieces(text string, cfg Config) []string {
	for _, strat := range pieceStrategies {
		if pieces := strat.split(text, cfg); len(pieces) > 1 {
			return pieces
		}
	}
	return []string{text}
}

// splitAtMarkers starts a new piece at every line beginning with a
// section-marker word.
func splitAtMarkers(text string, cfg Config) []string {
	if cfg.markerRe == nil {
		return nil
	}

	var pieces []string
	var current []string

	for _, line := range strings.Split(text, "\n") {
		if cfg.markerRe.MatchString(line) && len(current) > 0 {
			pieces = appendPiece(pieces, current)
			current = current[:0]
		}
		current = append(current, line)
	}
	return appendPiece(pieces, current)
}

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

func splitBlankLines(text string, _ Config) []string {
	var pieces []string
	for _, p := range blankLineRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

func splitLines(text string, _ Config) []string {
	var pieces []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			pieces = append(pieces, line)
		}
	}
	return pieces
}

func appendPiece(pieces []string, lines []string) []string {
	piece := strings.TrimSpace(strings.Join(lines, "\n"))
	if piece == "" {
		return pieces
	}
	return append(pieces, piece)
}

// accumulate greedily packs pieces into fragments of roughly TargetSize
// characters. When a fragment is flushed, its trailing Overlap window is
// prepended to the next one so adjacent fragments share context.
func accumulate(pieces []string, cfg Config) []string {
	var out []string
	var buf strings.Builder

	for _, piece := range pieces {
		if buf.Len() > 0 && buf.Len()+len(piece)+1 > cfg.TargetSize {
			flushed := buf.String()
			out = append(out, flushed)
			buf.Reset()
			if tail := overlapTail(flushed, cfg.Overlap); tail != "" {
				buf.WriteString(tail)
			}
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(piece)
	}

	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

// overlapTail returns the last n characters of s, snapped forward to a
// word boundary when one is close enough to avoid cutting mid-word.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	tail := s[len(s)-n:]
	if idx := strings.IndexAny(tail, " \n\t"); idx > 0 && idx < n/2 {
		tail = tail[idx+1:]
	}
	return tail
}

// hardSplit force-splits any fragment still longer than twice the
// target size onto fixed windows with the smaller overlap.
func hardSplit(bodies []string, cfg Config) []string {
	out := make([]string, 0, len(bodies))
	for _, body := range bodies {
		if len(body) <= 2*cfg.TargetSize {
			out = append(out, body)
			continue
		}
		step := cfg.TargetSize - cfg.HardOverlap
		for start := 0; start < len(body); start += step {
			end := start + cfg.TargetSize
			if end >= len(body) {
				out = append(out, body[start:])
				break
			}
			out = append(out, body[start:end])
		}
	}
	return out
}
