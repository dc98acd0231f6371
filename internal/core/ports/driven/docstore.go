package driven

import (
	"context"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// DocumentStore persists document metadata.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// UpdateStatus sets a document's status and status message.
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, message string) error

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document.
	DeleteDocument(ctx context.Context, id string) error
}
