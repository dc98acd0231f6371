package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_states (document_id, total_pages, processed_pages, total_chunks, page_group_count, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			total_pages = excluded.total_pages,
			processed_pages = excluded.processed_pages,
			total_chunks = excluded.total_chunks,
			page_group_count = excluded.page_group_count,
			started_at = excluded.started_at
	`, state.DocumentID, state.TotalPages, state.ProcessedPages,
		state.TotalChunks, state.PageGroupCount, state.StartedAt)

	if err != nil {
		return fmt.Errorf("saving ingest state: %w", err)
	}
	return nil
}

// GetState retrieves the ingest state for a document.
func (s *ingestStateStore) GetState(ctx context.Context, documentID string) (*domain.IngestState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT document_id, total_pages, processed_pages, total_chunks, page_group_count, started_at
		FROM ingest_states WHERE document_id = ?
	`, documentID)

	var state domain.IngestState
	if err := row.Scan(&state.DocumentID, &state.TotalPages, &state.ProcessedPages,
		&state.TotalChunks, &state.PageGroupCount, &state.StartedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning ingest state: %w", err)
	}

	return &state, nil
}

// DeleteState removes the ingest state for a document.
func (s *ingestStateStore) DeleteState(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM ingest_states WHERE document_id = ?", documentID)
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

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM page_groups WHERE document_id = ?", groups[0].DocumentID); err != nil {
		return fmt.Errorf("clearing page groups: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO page_groups (document_id, group_idx, pages) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, group := range groups {
		pagesJSON, err := json.Marshal(group.Pages)
		if err != nil {
			return fmt.Errorf("marshalling pages: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, group.DocumentID, group.Index, string(pagesJSON)); err != nil {
			return fmt.Errorf("saving page group %d: %w", group.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetPageGroups returns a document's page groups ordered by index.
func (s *ingestStateStore) GetPageGroups(ctx context.Context, documentID string) ([]domain.PageGroup, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, group_idx, pages
		FROM page_groups WHERE document_id = ? ORDER BY group_idx
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying page groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.PageGroup //nolint:prealloc // size unknown from query
	for rows.Next() {
		var group domain.PageGroup
		var pagesJSON string
		if err := rows.Scan(&group.DocumentID, &group.Index, &pagesJSON); err != nil {
			return nil, fmt.Errorf("scanning page group: %w", err)
		}
		if err := json.Unmarshal([]byte(pagesJSON), &group.Pages); err != nil {
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
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM page_groups WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting page groups: %w", err)
	}
	return nil
}
