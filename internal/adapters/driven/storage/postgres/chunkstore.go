package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks appends chunks in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, chunk := range chunks {
		componentsJSON, err := json.Marshal(chunk.Tags.Components)
		if err != nil {
			return fmt.Errorf("marshalling components: %w", err)
		}
		connectionsJSON, err := json.Marshal(chunk.Tags.Connections)
		if err != nil {
			return fmt.Errorf("marshalling connections: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO chunks (id, document_id, content, page_number, panel, voltage, components, connections, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, chunk.ID, chunk.DocumentID, chunk.Content, chunk.PageNumber,
			chunk.Tags.Panel, chunk.Tags.Voltage,
			string(componentsJSON), string(connectionsJSON),
			toVector(chunk.Embedding), chunk.CreatedAt); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ScanChunks returns chunks matching the filter in insertion order.
func (s *chunkStore) ScanChunks(ctx context.Context, filter driven.ChunkFilter) ([]domain.Chunk, error) {
	query := `
		SELECT id, document_id, content, page_number, panel, voltage, components, connections, embedding, created_at
		FROM chunks
	`

	var conds []string
	var args []any
	if filter.DocumentID != "" {
		args = append(args, filter.DocumentID)
		conds = append(conds, fmt.Sprintf("document_id = $%d", len(args)))
	}
	if filter.Panel != "" {
		args = append(args, "%"+filter.Panel+"%")
		conds = append(conds, fmt.Sprintf("panel ILIKE $%d", len(args)))
	}
	if filter.Voltage != "" {
		args = append(args, filter.Voltage)
		conds = append(conds, fmt.Sprintf("lower(voltage) = lower($%d)", len(args)))
	}
	if filter.MissingEmbedding {
		conds = append(conds, "embedding IS NULL")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.store.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var componentsJSON, connectionsJSON []byte
		var embedding *pgvector.Vector
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
			&chunk.PageNumber, &chunk.Tags.Panel, &chunk.Tags.Voltage,
			&componentsJSON, &connectionsJSON, &embedding, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if err := json.Unmarshal(componentsJSON, &chunk.Tags.Components); err != nil {
			return nil, fmt.Errorf("unmarshaling components: %w", err)
		}
		if err := json.Unmarshal(connectionsJSON, &chunk.Tags.Connections); err != nil {
			return nil, fmt.Errorf("unmarshaling connections: %w", err)
		}
		chunk.Tags.Normalise()
		if embedding != nil {
			chunk.Embedding = embedding.Slice()
		}

		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// UpdateEmbedding sets the embedding for one chunk.
func (s *chunkStore) UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	tag, err := s.store.pool.Exec(ctx, `
		UPDATE chunks SET embedding = $1 WHERE id = $2
	`, toVector(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountChunks returns the number of chunks for a document.
func (s *chunkStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	row := s.store.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = $1", documentID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteChunks removes all chunks for a document.
func (s *chunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.store.pool.Exec(ctx,
		"DELETE FROM chunks WHERE document_id = $1", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// toVector converts an embedding for the vector column. Empty
// embeddings are stored as NULL so the backfill filter can find them.
func toVector(embedding []float32) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}
