// Package postgres provides an alternative storage backend for shared
// deployments. It implements the same store interfaces as the SQLite
// backend on top of PostgreSQL with the pgvector extension, so chunk
// embeddings live in a native vector column.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// DefaultDimensions matches the default embedding model output size.
const DefaultDimensions = 768

// Config holds the connection settings for the Postgres store.
type Config struct {
	// ConnString is a pgx connection string or URL.
	ConnString string

	// Dimensions is the vector column size. Every embedding written to
	// the store must have exactly this many elements.
	Dimensions int
}

// Store is a unified Postgres-based storage that provides access to all
// metadata store interfaces through wrapper types.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres, enables pgvector and creates the
// schema if missing.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx, cfg.Dimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// IngestStateStore returns an IngestStateStore interface backed by this store.
func (s *Store) IngestStateStore() driven.IngestStateStore {
	return &ingestStateStore{store: s}
}

// QueryLogStore returns a QueryLogStore interface backed by this store.
func (s *Store) QueryLogStore() driven.QueryLogStore {
	return &queryLogStore{store: s}
}

// ensureSchema creates the extension and tables. Statements are
// idempotent so startup against an existing schema is a no-op.
func (s *Store) ensureSchema(ctx context.Context, dimensions int) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS documents (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			source_ref     TEXT NOT NULL DEFAULT '',
			mime_type      TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL,
			status_message TEXT NOT NULL DEFAULT '',
			page_count     INTEGER NOT NULL DEFAULT 0,
			created_at     TIMESTAMPTZ NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			seq         BIGSERIAL,
			id          TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content     TEXT NOT NULL,
			page_number INTEGER NOT NULL DEFAULT 0,
			panel       TEXT NOT NULL DEFAULT '',
			voltage     TEXT NOT NULL DEFAULT '',
			components  JSONB NOT NULL DEFAULT '[]',
			connections JSONB NOT NULL DEFAULT '[]',
			embedding   vector(%d),
			created_at  TIMESTAMPTZ NOT NULL
		)`, dimensions),
		"CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id)",
		`CREATE TABLE IF NOT EXISTS ingest_states (
			document_id      TEXT PRIMARY KEY,
			total_pages      INTEGER NOT NULL,
			processed_pages  INTEGER NOT NULL,
			total_chunks     INTEGER NOT NULL,
			page_group_count INTEGER NOT NULL,
			started_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS page_groups (
			document_id TEXT NOT NULL,
			group_idx   INTEGER NOT NULL,
			pages       JSONB NOT NULL,
			PRIMARY KEY (document_id, group_idx)
		)`,
		`CREATE TABLE IF NOT EXISTS query_logs (
			seq         BIGSERIAL,
			id          TEXT PRIMARY KEY,
			query       TEXT NOT NULL,
			answer      TEXT NOT NULL,
			match_count INTEGER NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
