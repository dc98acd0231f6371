package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// Ensure IngestStateStore implements the interface.
var _ driven.IngestStateStore = (*IngestStateStore)(nil)

// IngestStateStore is an in-memory implementation of driven.IngestStateStore.
type IngestStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.IngestState
	groups map[string][]domain.PageGroup
}

// NewIngestStateStore creates a new in-memory ingest state store.
func NewIngestStateStore() *IngestStateStore {
	return &IngestStateStore{
		states: make(map[string]domain.IngestState),
		groups: make(map[string][]domain.PageGroup),
	}
}

// SaveState stores or replaces the ingest state for a document.
func (s *IngestStateStore) SaveState(_ context.Context, state *domain.IngestState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.DocumentID] = *state
	return nil
}

// GetState retrieves the ingest state for a document.
func (s *IngestStateStore) GetState(_ context.Context, documentID string) (*domain.IngestState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

// DeleteState removes the ingest state for a document.
func (s *IngestStateStore) DeleteState(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, documentID)
	return nil
}

// SavePageGroups stores the page groups for a document, replacing any
// existing groups.
func (s *IngestStateStore) SavePageGroups(_ context.Context, groups []domain.PageGroup) error {
	if len(groups) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[groups[0].DocumentID] = append([]domain.PageGroup(nil), groups...)
	return nil
}

// GetPageGroups returns a document's page groups ordered by index.
func (s *IngestStateStore) GetPageGroups(_ context.Context, documentID string) ([]domain.PageGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := append([]domain.PageGroup(nil), s.groups[documentID]...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Index < groups[j].Index })
	return groups, nil
}

// DeletePageGroups removes all page groups for a document.
func (s *IngestStateStore) DeletePageGroups(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, documentID)
	return nil
}
