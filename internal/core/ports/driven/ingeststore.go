package driven

import (
	"context"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// IngestStateStore persists batch ingestion progress so processing can
// resume across invocations with no in-memory state.
type IngestStateStore interface {
	// SaveState stores or replaces the ingest state for a document.
	SaveState(ctx context.Context, state *domain.IngestState) error

	// GetState retrieves the ingest state for a document.
	// Returns domain.ErrNotFound when no ingestion is in flight.
	GetState(ctx context.Context, documentID string) (*domain.IngestState, error)

	// DeleteState removes the ingest state for a document.
	DeleteState(ctx context.Context, documentID string) error

	// SavePageGroups stores the page groups produced by pagination,
	// replacing any existing groups for the document.
	SavePageGroups(ctx context.Context, groups []domain.PageGroup) error

	// GetPageGroups returns a document's page groups ordered by index.
	GetPageGroups(ctx context.Context, documentID string) ([]domain.PageGroup, error)

	// DeletePageGroups removes all page groups for a document.
	DeletePageGroups(ctx context.Context, documentID string) error
}
