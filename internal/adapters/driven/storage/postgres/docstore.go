package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO documents (id, name, source_ref, mime_type, status, status_message, page_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source_ref = EXCLUDED.source_ref,
			mime_type = EXCLUDED.mime_type,
			status = EXCLUDED.status,
			status_message = EXCLUDED.status_message,
			page_count = EXCLUDED.page_count
	`, doc.ID, doc.Name, doc.SourceRef, doc.MIMEType,
		string(doc.Status), doc.StatusMessage, doc.PageCount, doc.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.pool.QueryRow(ctx, `
		SELECT id, name, source_ref, mime_type, status, status_message, page_count, created_at
		FROM documents WHERE id = $1
	`, id)

	var doc domain.Document
	var status string
	if err := row.Scan(&doc.ID, &doc.Name, &doc.SourceRef, &doc.MIMEType,
		&status, &doc.StatusMessage, &doc.PageCount, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)

	return &doc, nil
}

// UpdateStatus sets a document's status and status message.
func (s *documentStore) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, message string) error {
	tag, err := s.store.pool.Exec(ctx, `
		UPDATE documents SET status = $1, status_message = $2 WHERE id = $3
	`, string(status), message, id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns all documents, newest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, name, source_ref, mime_type, status, status_message, page_count, created_at
		FROM documents ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var status string
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.SourceRef, &doc.MIMEType,
			&status, &doc.StatusMessage, &doc.PageCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}
