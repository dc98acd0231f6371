package driven

import (
	"context"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// ChunkFilter narrows a chunk scan. Zero-valued fields are ignored.
type ChunkFilter struct {
	// DocumentID restricts the scan to one document.
	DocumentID string

	// Panel matches chunks tagged with this panel (case-insensitive
	// substring).
	Panel string

	// Voltage matches chunks tagged with this voltage level.
	Voltage string

	// MissingEmbedding selects only chunks without an embedding.
	MissingEmbedding bool
}

// ChunkStore persists chunks and supports filtered scans for retrieval.
type ChunkStore interface {
	// SaveChunks appends chunks. Chunk IDs are unique across calls.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// ScanChunks returns chunks matching the filter in insertion order.
	ScanChunks(ctx context.Context, filter ChunkFilter) ([]domain.Chunk, error)

	// UpdateEmbedding sets the embedding for one chunk.
	UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error

	// CountChunks returns the number of chunks for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)

	// DeleteChunks removes all chunks for a document.
	DeleteChunks(ctx context.Context, documentID string) error
}
