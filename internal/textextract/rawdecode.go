package textextract

import (
	"context"
	"strings"
	"unicode"
)

// Ensure RawDecode implements the interface.
var _ Strategy = (*RawDecode)(nil)

// maxRawBytes bounds the last-resort scan.
const maxRawBytes = 4 << 20

// RawDecode is the last-resort strategy: it scavenges printable runs
// from arbitrary bytes. Useful for unknown formats that embed readable
// text, such as exported schedules with binary framing.
type RawDecode struct{}

// NewRawDecode creates a raw decode strategy.
func NewRawDecode() *RawDecode {
	return &RawDecode{}
}

// Name identifies the strategy.
func (s *RawDecode) Name() string { return "rawdecode" }

// Supports accepts every MIME type. Place this strategy last.
func (s *RawDecode) Supports(string) bool { return true }

// minRunLength filters out the short printable runs that occur by
// chance inside binary data.
const minRunLength = 6

// Extract keeps printable ASCII runs of at least minRunLength characters.
func (s *RawDecode) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if len(data) > maxRawBytes {
		data = data[:maxRawBytes]
	}

	var b strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= minRunLength {
			b.Write(run)
			b.WriteByte('\n')
		}
		run = run[:0]
	}

	for _, c := range data {
		if c < 128 && (unicode.IsPrint(rune(c)) || c == '\t') {
			run = append(run, c)
			continue
		}
		flush()
	}
	flush()

	return b.String(), nil
}
