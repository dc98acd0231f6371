package domain

import "time"

// DocumentStatus is the lifecycle status of a document.
// Once processing starts, the ingestion service is the sole writer.
type DocumentStatus string

const (
	// StatusUploaded means the document is registered but not yet processed.
	StatusUploaded DocumentStatus = "uploaded"

	// StatusExtracting means text extraction from source bytes is underway.
	StatusExtracting DocumentStatus = "extracting"

	// StatusProcessing means pages are being segmented and indexed in batches.
	StatusProcessing DocumentStatus = "processing"

	// StatusIndexed means all pages have been chunked and persisted.
	StatusIndexed DocumentStatus = "indexed"

	// StatusError is the absorbing failure status. A document in error
	// can only leave it through explicit reprocessing.
	StatusError DocumentStatus = "error"
)

// statusTransitions is the allowed transition table.
// StatusError is reachable from every non-terminal status.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusUploaded:   {StatusExtracting, StatusError},
	StatusExtracting: {StatusProcessing, StatusError},
	StatusProcessing: {StatusIndexed, StatusError},
	StatusIndexed:    {StatusExtracting, StatusError}, // reprocess
	StatusError:      {StatusExtracting},              // reprocess
}

// Valid reports whether s is a known status value.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusExtracting, StatusProcessing, StatusIndexed, StatusError:
		return true
	}
	return false
}

// CanTransition reports whether a transition from s to next is allowed.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends an ingestion run.
func (s DocumentStatus) Terminal() bool {
	return s == StatusIndexed || s == StatusError
}

// Document represents an ingested source document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the human-readable file name.
	Name string

	// SourceRef locates the document bytes in the external source
	// (file path, Drive file ID, etc).
	SourceRef string

	// MIMEType is the content type reported by the source.
	MIMEType string

	// Status is the processing lifecycle status.
	Status DocumentStatus

	// StatusMessage carries the human-readable reason for StatusError.
	StatusMessage string

	// PageCount is the number of logical pages found during pagination.
	PageCount int

	// CreatedAt is when the document was registered.
	CreatedAt time.Time
}

// Connection is a directed edge between two identified components,
// extracted from diagram or schedule text.
type Connection struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Tags holds the structured attributes extracted from a chunk.
// Fields are always present: empty string or empty slice, never absent.
type Tags struct {
	Panel       string       `json:"panel"`
	Voltage     string       `json:"voltage"`
	Components  []string     `json:"components"`
	Connections []Connection `json:"connections"`
}

// Normalise replaces nil slices so that a Tags value always satisfies
// the extraction schema (empty, never missing).
func (t *Tags) Normalise() {
	if t.Components == nil {
		t.Components = []string{}
	}
	if t.Connections == nil {
		t.Connections = []Connection{}
	}
}

// Chunk is a bounded, page-tagged unit of document text.
// Chunks are immutable once written, except for Embedding which may be
// filled by a later backfill pass.
type Chunk struct {
	// ID is a ULID: lexicographic order matches insertion order,
	// which keeps chunks sorted within a page.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the page-marked text of this chunk.
	Content string

	// PageNumber is the 1-based logical page this chunk came from.
	PageNumber int

	// Tags are the extracted domain attributes.
	Tags Tags

	// Embedding is the vector representation. Empty means not yet
	// embedded (or embedding unavailable); scoring degrades to lexical.
	Embedding []float32

	// CreatedAt is when the chunk was written.
	CreatedAt time.Time
}
