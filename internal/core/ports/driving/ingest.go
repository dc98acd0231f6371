package driving

import (
	"context"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// BatchStepResult reports one ProcessBatch invocation.
type BatchStepResult struct {
	// Result is in_progress or indexed.
	Result domain.BatchResult `json:"result"`

	// ProcessedPages is the page count processed so far.
	ProcessedPages int `json:"processedPages"`

	// TotalPages is the page count of the whole document.
	TotalPages int `json:"totalPages"`

	// ChunksAdded is the number of chunks written by this step.
	ChunksAdded int `json:"chunksAdded"`
}

// ProcessStatus describes where a document sits in the pipeline.
type ProcessStatus struct {
	DocumentID     string                `json:"documentId"`
	Status         domain.DocumentStatus `json:"status"`
	StatusMessage  string                `json:"statusMessage,omitempty"`
	Phase          domain.IngestPhase    `json:"phase"`
	TotalPages     int                   `json:"totalPages"`
	ProcessedPages int                   `json:"processedPages"`
	TotalChunks    int                   `json:"totalChunks"`
	EmbeddedChunks int                   `json:"embeddedChunks"`
}

// EmbedResult reports one EmbedChunks invocation.
type EmbedResult struct {
	// Embedded is the number of chunks embedded by this call.
	Embedded int `json:"embedded"`

	// Remaining is the number of chunks still without an embedding.
	Remaining int `json:"remaining"`
}

// SyncReport summarises one folder sync run.
type SyncReport struct {
	// Found is the number of new or changed files discovered.
	Found int `json:"found"`

	// Indexed is the number of documents that reached indexed status.
	Indexed int `json:"indexed"`

	// Failed is the number of documents that ended in error status.
	Failed int `json:"failed"`
}

// IngestService runs the document ingestion pipeline.
type IngestService interface {
	// CreateDocument registers a document for a source reference and
	// returns it in uploaded status. No processing happens yet.
	CreateDocument(ctx context.Context, name, sourceRef string) (*domain.Document, error)

	// ProcessDocument fetches and extracts the document, splits pages,
	// persists the initial ingest state and moves the document to
	// processing status. It is idempotent: reprocessing deletes the
	// document's existing chunks first.
	ProcessDocument(ctx context.Context, documentID string) error

	// ProcessBatch performs one time-bounded batch step, persisting
	// progress before returning. Repeat until the result is indexed.
	ProcessBatch(ctx context.Context, documentID string) (*BatchStepResult, error)

	// EmbedChunks backfills embeddings for chunks that have none,
	// bounded by the same time budget as ProcessBatch.
	EmbedChunks(ctx context.Context, documentID string) (*EmbedResult, error)

	// Status reports pipeline progress for a document.
	Status(ctx context.Context, documentID string) (*ProcessStatus, error)

	// ListDocuments returns all registered documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document with its chunks and any
	// in-flight ingest state.
	DeleteDocument(ctx context.Context, documentID string) error

	// SyncFolder ingests files under a source folder that changed since
	// the last sync, driving each one to a terminal status.
	SyncFolder(ctx context.Context, folderRef string) (*SyncReport, error)
}
