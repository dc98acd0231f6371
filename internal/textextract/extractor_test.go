package textextract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// stubStrategy is a scriptable test double.
type stubStrategy struct {
	name     string
	supports bool
	text     string
	err      error
	calls    int
}

func (s *stubStrategy) Name() string         { return s.name }
func (s *stubStrategy) Supports(string) bool { return s.supports }
func (s *stubStrategy) Extract(context.Context, []byte, string) (string, error) {
	s.calls++
	return s.text, s.err
}

var longText = strings.Repeat("panel schedule content ", 10)

func TestExtractorFirstSuccessWins(t *testing.T) {
	first := &stubStrategy{name: "first", supports: true, text: longText}
	second := &stubStrategy{name: "second", supports: true, text: longText}

	text, name, err := New(first, second).Extract(context.Background(), []byte("raw"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "first", name)
	assert.Equal(t, strings.TrimSpace(longText), text)
	assert.Zero(t, second.calls, "later strategy should not run")
}

func TestExtractorSkipsUnsupportedAndFailed(t *testing.T) {
	unsupported := &stubStrategy{name: "unsupported", supports: false, text: longText}
	failing := &stubStrategy{name: "failing", supports: true, err: errors.New("boom")}
	short := &stubStrategy{name: "short", supports: true, text: "tiny"}
	ok := &stubStrategy{name: "ok", supports: true, text: longText}

	text, name, err := New(unsupported, failing, short, ok).
		Extract(context.Background(), []byte("raw"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "ok", name)
	assert.NotEmpty(t, text)
	assert.Zero(t, unsupported.calls)
	assert.Equal(t, 1, failing.calls)
}

func TestExtractorAllFail(t *testing.T) {
	failing := &stubStrategy{name: "failing", supports: true, err: errors.New("boom")}

	_, _, err := New(failing).Extract(context.Background(), []byte("raw"), "application/pdf")
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
}

func TestExtractorEmptyInput(t *testing.T) {
	ok := &stubStrategy{name: "ok", supports: true, text: longText}

	_, _, err := New(ok).Extract(context.Background(), nil, "text/plain")
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
	assert.Zero(t, ok.calls)
}

func TestPlainTextExtract(t *testing.T) {
	s := NewPlainText()

	assert.True(t, s.Supports("text/plain; charset=utf-8"))
	assert.True(t, s.Supports("text/markdown"))
	assert.False(t, s.Supports("application/pdf"))

	text, err := s.Extract(context.Background(), []byte("line one\r\nline two"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)

	_, err = s.Extract(context.Background(), []byte{0xff, 0xfe, 0x00}, "text/plain")
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
}

func TestHTMLExtract(t *testing.T) {
	s := NewHTML()
	require.True(t, s.Supports("text/html"))

	page := `<html><head><title>t</title><style>.x{}</style></head>
<body><h1>Panel MDP-1</h1><script>var x;</script>
<p>Feeds the east wing at 480V.</p>
<table><tr><td>CB-1</td><td>100A</td></tr></table></body></html>`

	text, err := s.Extract(context.Background(), []byte(page), "text/html")
	require.NoError(t, err)
	assert.Contains(t, text, "Panel MDP-1")
	assert.Contains(t, text, "Feeds the east wing at 480V.")
	assert.Contains(t, text, "CB-1")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, ".x{}")
}

func TestRawDecodeExtract(t *testing.T) {
	s := NewRawDecode()
	require.True(t, s.Supports("application/octet-stream"))

	data := append([]byte{0x00, 0x01, 0x02}, []byte("Switchboard SB-2 main lugs only")...)
	data = append(data, 0xff, 'a', 'b', 0xfe) // short run, dropped

	text, err := s.Extract(context.Background(), data, "application/octet-stream")
	require.NoError(t, err)
	assert.Contains(t, text, "Switchboard SB-2 main lugs only")
	assert.NotContains(t, text, "ab")
}

func TestPDFDecodeContentText(t *testing.T) {
	content := []byte(`BT /F1 12 Tf (Panel MDP-1) Tj [(480)-250(V feeder)] TJ ET`)

	text := decodeContentText(content)
	assert.Contains(t, text, "Panel MDP-1")
	assert.Contains(t, text, "480")
	assert.Contains(t, text, "V feeder")
}

func TestUnescapePDFString(t *testing.T) {
	assert.Equal(t, "a(b)c", unescapePDFString(`a\(b\)c`))
	assert.Equal(t, "line\nnext", unescapePDFString(`line\nnext`))
	assert.Equal(t, "plain", unescapePDFString("plain"))
}
