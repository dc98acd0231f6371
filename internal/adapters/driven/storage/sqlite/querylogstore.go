package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// queryLogStore implements driven.QueryLogStore.
type queryLogStore struct {
	store *Store
}

var _ driven.QueryLogStore = (*queryLogStore)(nil)

// AppendQueryLog records one answered query.
func (s *queryLogStore) AppendQueryLog(ctx context.Context, entry *domain.QueryLog) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO query_logs (id, query, answer, match_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.Query, entry.Answer, entry.MatchCount, entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("appending query log: %w", err)
	}
	return nil
}

// ListQueryLogs returns the most recent entries, newest first.
func (s *queryLogStore) ListQueryLogs(ctx context.Context, limit int) ([]domain.QueryLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, query, answer, match_count, created_at
		FROM query_logs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying query logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.QueryLog //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.QueryLog
		if err := rows.Scan(&entry.ID, &entry.Query, &entry.Answer,
			&entry.MatchCount, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning query log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query logs: %w", err)
	}

	return entries, nil
}
