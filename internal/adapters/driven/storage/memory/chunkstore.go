package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
// Chunks are kept in insertion order, which ScanChunks preserves.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

// SaveChunks appends chunks.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// ScanChunks returns chunks matching the filter in insertion order.
func (s *ChunkStore) ScanChunks(_ context.Context, filter driven.ChunkFilter) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunk := range s.chunks {
		if matchesFilter(chunk, filter) {
			result = append(result, chunk)
		}
	}
	return result, nil
}

// UpdateEmbedding sets the embedding for one chunk.
func (s *ChunkStore) UpdateEmbedding(_ context.Context, chunkID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chunks {
		if s.chunks[i].ID == chunkID {
			s.chunks[i].Embedding = embedding
			return nil
		}
	}
	return domain.ErrNotFound
}

// CountChunks returns the number of chunks for a document.
func (s *ChunkStore) CountChunks(_ context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			count++
		}
	}
	return count, nil
}

// DeleteChunks removes all chunks for a document.
func (s *ChunkStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if chunk.DocumentID != documentID {
			kept = append(kept, chunk)
		}
	}
	s.chunks = kept
	return nil
}

func matchesFilter(chunk domain.Chunk, filter driven.ChunkFilter) bool {
	if filter.DocumentID != "" && chunk.DocumentID != filter.DocumentID {
		return false
	}
	if filter.Panel != "" && !strings.Contains(strings.ToLower(chunk.Tags.Panel), strings.ToLower(filter.Panel)) {
		return false
	}
	if filter.Voltage != "" && !strings.EqualFold(chunk.Tags.Voltage, filter.Voltage) {
		return false
	}
	if filter.MissingEmbedding && len(chunk.Embedding) > 0 {
		return false
	}
	return true
}
