package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// ingestStateStore implements driven.IngestStateStore.
type ingestStateStore struct {
	store *Store
}

var _ driven.IngestStateStore = (*ingestStateStore)(nil)

// SaveState stores or replaces the ingest state for a document.
func (s *ingestStateStore) SaveState(ctx context.Context, state *domain.IngestState) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO ingest_states (document_id, total_pages, processed_pages, total_chunks, page_group_count, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id) DO UPDATE SET
			total_pages = EXCLUDED.total_pages,
			processed_pages = EXCLUDED.processed_pages,
			total_chunks = EXCLUDED.total_chunks,
			page_group_count = EXCLUDED.page_group_count,
			started_at = EXCLUDED.started_at
	`, state.DocumentID, state.TotalPages, state.ProcessedPages,
		state.TotalChunks, state.PageGroupCount, state.StartedAt)

	if err != nil {
		return fmt.Errorf("saving ingest state: %w", err)
	}
	return nil
}

// GetState retrieves the ingest state for a document.
func (s *ingestStateStore) GetState(ctx context.Context, documentID string) (*domain.IngestState, error) {
	row := s.store.pool.QueryRow(ctx, `
		SELECT document_id, total_pages, processed_pages, total_chunks, page_group_count, started_at
		FROM ingest_states WHERE document_id = $1
	`, documentID)

	var state domain.IngestState
	if err := row.Scan(&state.DocumentID, &state.TotalPages, &state.ProcessedPages,
		&state.TotalChunks, &state.PageGroupCount, &state.StartedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning ingest state: %w", err)
	}

	return &state, nil
}

// DeleteState removes the ingest state for a document.
func (s *ingestStateStore) DeleteState(ctx context.Context, documentID string) error {
	_, err := s.store.pool.Exec(ctx,
		"DELETE FROM ingest_states WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("deleting ingest state: %w", err)
	}
	return nil
}

// SavePageGroups replaces a document's page groups in one transaction.
func (s *ingestStateStore) SavePageGroups(ctx context.Context, groups []domain.PageGroup) error {
	if len(groups) == 0 {
		return nil
	}

	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		"DELETE FROM page_groups WHERE document_id = $1", groups[0].DocumentID); err != nil {
		return fmt.Errorf("clearing page groups: %w", err)
	}

	for _, group := range groups {
		pagesJSON, err := json.Marshal(group.Pages)
		if err != nil {
			return fmt.Errorf("marshalling pages: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO page_groups (document_id, group_idx, pages) VALUES ($1, $2, $3)
		`, group.DocumentID, group.Index, string(pagesJSON)); err != nil {
			return fmt.Errorf("saving page group %d: %w", group.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetPageGroups returns a document's page groups ordered by index.
func (s *ingestStateStore) GetPageGroups(ctx context.Context, documentID string) ([]domain.PageGroup, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT document_id, group_idx, pages
		FROM page_groups WHERE document_id = $1 ORDER BY group_idx
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying page groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.PageGroup //nolint:prealloc // size unknown from query
	for rows.Next() {
		var group domain.PageGroup
		var pagesJSON []byte
		if err := rows.Scan(&group.DocumentID, &group.Index, &pagesJSON); err != nil {
			return nil, fmt.Errorf("scanning page group: %w", err)
		}
		if err := json.Unmarshal(pagesJSON, &group.Pages); err != nil {
			return nil, fmt.Errorf("unmarshaling pages: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating page groups: %w", err)
	}

	return groups, nil
}

// DeletePageGroups removes all page groups for a document.
func (s *ingestStateStore) DeletePageGroups(ctx context.Context, documentID string) error {
	_, err := s.store.pool.Exec(ctx,
		"DELETE FROM page_groups WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("deleting page groups: %w", err)
	}
	return nil
}
