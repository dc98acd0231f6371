package services

import (
	"context"

	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// DefaultEmbedInputLimit caps the characters sent per embedding call.
// Provider token limits sit well above this for typical chunk sizes.
const DefaultEmbedInputLimit = 6000

// EmbeddingClient wraps an EmbeddingService with the pipeline's
// degradation contract: failures yield an empty vector, never an error,
// so ingestion and queries continue lexical-only.
type EmbeddingClient struct {
	embedder   driven.EmbeddingService // optional
	inputLimit int
}

// NewEmbeddingClient creates an embedding client. embedder may be nil.
func NewEmbeddingClient(embedder driven.EmbeddingService) *EmbeddingClient {
	return &EmbeddingClient{embedder: embedder, inputLimit: DefaultEmbedInputLimit}
}

// Available reports whether an embedding backend is configured.
func (c *EmbeddingClient) Available() bool {
	return c != nil && c.embedder != nil
}

// Embed returns the embedding for text, truncated to the input limit
// first. Any failure returns an empty vector.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) []float32 {
	if !c.Available() {
		return nil
	}

	if len(text) > c.inputLimit {
		text = text[:c.inputLimit]
	}

	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		logger.Debug("Embedding failed, continuing without vector: %v", err)
		return nil
	}
	return vec
}
