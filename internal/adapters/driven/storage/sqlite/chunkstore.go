package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

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

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, page_number, panel, voltage, components, connections, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		componentsJSON, err := json.Marshal(chunk.Tags.Components)
		if err != nil {
			return fmt.Errorf("marshalling components: %w", err)
		}
		connectionsJSON, err := json.Marshal(chunk.Tags.Connections)
		if err != nil {
			return fmt.Errorf("marshalling connections: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content,
			chunk.PageNumber, chunk.Tags.Panel, chunk.Tags.Voltage,
			string(componentsJSON), string(connectionsJSON),
			float32SliceToBytes(chunk.Embedding), chunk.CreatedAt); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
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
		conds = append(conds, "document_id = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.Panel != "" {
		conds = append(conds, "instr(lower(panel), lower(?)) > 0")
		args = append(args, filter.Panel)
	}
	if filter.Voltage != "" {
		conds = append(conds, "voltage = ? COLLATE NOCASE")
		args = append(args, filter.Voltage)
	}
	if filter.MissingEmbedding {
		conds = append(conds, "(embedding IS NULL OR length(embedding) = 0)")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var componentsJSON, connectionsJSON string
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
			&chunk.PageNumber, &chunk.Tags.Panel, &chunk.Tags.Voltage,
			&componentsJSON, &connectionsJSON, &embeddingBlob, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if err := json.Unmarshal([]byte(componentsJSON), &chunk.Tags.Components); err != nil {
			return nil, fmt.Errorf("unmarshaling components: %w", err)
		}
		if err := json.Unmarshal([]byte(connectionsJSON), &chunk.Tags.Connections); err != nil {
			return nil, fmt.Errorf("unmarshaling connections: %w", err)
		}
		chunk.Tags.Normalise()
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// UpdateEmbedding sets the embedding for one chunk.
func (s *chunkStore) UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE chunks SET embedding = ? WHERE id = ?
	`, float32SliceToBytes(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountChunks returns the number of chunks for a document.
func (s *chunkStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteChunks removes all chunks for a document.
func (s *chunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}
