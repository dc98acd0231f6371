package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// Ensure QueryLogStore implements the interface.
var _ driven.QueryLogStore = (*QueryLogStore)(nil)

// QueryLogStore is an in-memory implementation of driven.QueryLogStore.
type QueryLogStore struct {
	mu      sync.RWMutex
	entries []domain.QueryLog
}

// NewQueryLogStore creates a new in-memory query log store.
func NewQueryLogStore() *QueryLogStore {
	return &QueryLogStore{}
}

// AppendQueryLog records one answered query.
func (s *QueryLogStore) AppendQueryLog(_ context.Context, entry *domain.QueryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

// ListQueryLogs returns the most recent entries, newest first.
func (s *QueryLogStore) ListQueryLogs(_ context.Context, limit int) ([]domain.QueryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]domain.QueryLog, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, s.entries[i])
	}
	return result, nil
}
