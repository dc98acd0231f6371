package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// stubLLM returns scripted responses in call order. A nil entry in the
// queue produces an error for that call.
type stubLLM struct {
	responses []string
	errAt     map[int]bool
	calls     int
	prompts   []string
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	idx := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.errAt[idx] {
		return "", errors.New("provider unavailable")
	}
	if idx >= len(s.responses) {
		return "", errors.New("no scripted response")
	}
	return s.responses[idx], nil
}

func (s *stubLLM) GenerateVision(context.Context, string, []byte, string, driven.GenerateOptions) (string, error) {
	return "", errors.New("vision not scripted")
}

func (s *stubLLM) ModelName() string { return "stub" }
func (s *stubLLM) Close() error      { return nil }

// stubEmbedder returns a fixed vector or a fixed error.
type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

func (s *stubEmbedder) Dimensions() int   { return len(s.vec) }
func (s *stubEmbedder) ModelName() string { return "stub-embed" }
func (s *stubEmbedder) Close() error      { return nil }

// stubSource serves fixed bytes for every ref.
type stubSource struct {
	data  []byte
	mime  string
	err   error
	files []driven.SourceFile
}

func (s *stubSource) FetchBytes(context.Context, string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.data, s.mime, nil
}

func (s *stubSource) ListNewFiles(context.Context, string, time.Time) ([]driven.SourceFile, error) {
	return s.files, s.err
}

// fakeClock advances a fixed step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}
