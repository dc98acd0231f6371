// Package ai composes AI service adapters: first-success fallback
// chains over multiple providers, and the factory that builds them from
// configuration.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// Ensure the chains implement the interfaces.
var (
	_ driven.LLMService       = (*FallbackLLM)(nil)
	_ driven.EmbeddingService = (*FallbackEmbedder)(nil)
)

// FallbackLLM tries an ordered list of LLM services and returns the
// first successful response. Typical chains span Gemini models across
// both API versions with a local Ollama instance last.
type FallbackLLM struct {
	services []driven.LLMService
}

// NewFallbackLLM builds a chain. Returns nil when no services are given,
// which callers treat as "LLM not configured".
func NewFallbackLLM(services ...driven.LLMService) *FallbackLLM {
	if len(services) == 0 {
		return nil
	}
	return &FallbackLLM{services: services}
}

// Generate tries each service in order and returns the first success.
func (f *FallbackLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var errs []error
	for _, svc := range f.services {
		out, err := svc.Generate(ctx, prompt, opts)
		if err == nil {
			return out, nil
		}
		logger.Debug("LLM %s failed, trying next: %v", svc.ModelName(), err)
		errs = append(errs, fmt.Errorf("%s: %w", svc.ModelName(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, errors.Join(errs...))
}

// GenerateVision tries each service in order and returns the first success.
func (f *FallbackLLM) GenerateVision(ctx context.Context, prompt string, image []byte, imageMIME string, opts driven.GenerateOptions) (string, error) {
	var errs []error
	for _, svc := range f.services {
		out, err := svc.GenerateVision(ctx, prompt, image, imageMIME, opts)
		if err == nil {
			return out, nil
		}
		logger.Debug("Vision %s failed, trying next: %v", svc.ModelName(), err)
		errs = append(errs, fmt.Errorf("%s: %w", svc.ModelName(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, errors.Join(errs...))
}

// ModelName lists the chained model names in priority order.
func (f *FallbackLLM) ModelName() string {
	names := make([]string, len(f.services))
	for i, svc := range f.services {
		names[i] = svc.ModelName()
	}
	return strings.Join(names, ",")
}

// Close closes every service in the chain.
func (f *FallbackLLM) Close() error {
	var errs []error
	for _, svc := range f.services {
		errs = append(errs, svc.Close())
	}
	return errors.Join(errs...)
}

// FallbackEmbedder tries an ordered list of embedding services and
// returns the first successful vector. All services in one chain should
// produce vectors of the same dimension, or stored and query vectors
// will not compare.
type FallbackEmbedder struct {
	services []driven.EmbeddingService
}

// NewFallbackEmbedder builds a chain. Returns nil when no services are
// given, which callers treat as "embeddings not configured".
func NewFallbackEmbedder(services ...driven.EmbeddingService) *FallbackEmbedder {
	if len(services) == 0 {
		return nil
	}
	return &FallbackEmbedder{services: services}
}

// Embed tries each service in order and returns the first success.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var errs []error
	for _, svc := range f.services {
		vec, err := svc.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		logger.Debug("Embedder %s failed, trying next: %v", svc.ModelName(), err)
		errs = append(errs, fmt.Errorf("%s: %w", svc.ModelName(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, errors.Join(errs...))
}

// Dimensions returns the vector size of the primary service.
func (f *FallbackEmbedder) Dimensions() int {
	return f.services[0].Dimensions()
}

// ModelName lists the chained model names in priority order.
func (f *FallbackEmbedder) ModelName() string {
	names := make([]string, len(f.services))
	for i, svc := range f.services {
		names[i] = svc.ModelName()
	}
	return strings.Join(names, ",")
}

// Close closes every service in the chain.
func (f *FallbackEmbedder) Close() error {
	var errs []error
	for _, svc := range f.services {
		errs = append(errs, svc.Close())
	}
	return errors.Join(errs...)
}
