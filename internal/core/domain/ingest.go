package domain

import "time"

// IngestPhase is the explicit state of the batch ingestion machine.
// It is derived from the persisted Document and IngestState rows; the
// machine itself holds no in-memory state between invocations.
type IngestPhase string

const (
	// PhaseNotStarted means no processing has been requested.
	PhaseNotStarted IngestPhase = "not_started"

	// PhaseExtracting means source bytes are being converted to text.
	PhaseExtracting IngestPhase = "extracting"

	// PhasePaginating means extracted text is being split into pages
	// and the initial state record is being written.
	PhasePaginating IngestPhase = "paginating"

	// PhaseBatching means one or more batch steps have run but pages remain.
	PhaseBatching IngestPhase = "batching_in_progress"

	// PhaseIndexed is the terminal success phase.
	PhaseIndexed IngestPhase = "indexed"

	// PhaseError is the absorbing failure phase.
	PhaseError IngestPhase = "error"
)

// phaseTransitions is the allowed phase transition table.
var phaseTransitions = map[IngestPhase][]IngestPhase{
	PhaseNotStarted: {PhaseExtracting, PhaseError},
	PhaseExtracting: {PhasePaginating, PhaseError},
	PhasePaginating: {PhaseBatching, PhaseIndexed, PhaseError},
	PhaseBatching:   {PhaseBatching, PhaseIndexed, PhaseError},
	PhaseIndexed:    {PhaseExtracting}, // reprocess
	PhaseError:      {PhaseExtracting}, // reprocess
}

// CanTransition reports whether a transition from p to next is allowed.
func (p IngestPhase) CanTransition(next IngestPhase) bool {
	for _, allowed := range phaseTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BatchResult is the outcome of one batch step invocation.
type BatchResult string

const (
	// BatchInProgress means the time budget stopped the step before the
	// page list was exhausted; partial progress was persisted.
	BatchInProgress BatchResult = "in_progress"

	// BatchIndexed means the step reached the end of the page list and
	// the document is fully indexed.
	BatchIndexed BatchResult = "indexed"
)

// Page is one logical page of extracted document text.
type Page struct {
	// Number is the 1-based page number.
	Number int `json:"number"`

	// Text is the page content.
	Text string `json:"text"`
}

// PageGroup is a bucket of consecutive pages packed so that its
// serialised form stays under the per-value size ceiling of the
// row-store. Groups are keyed by (DocumentID, Index).
type PageGroup struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Pages      []Page `json:"pages"`
}

// IngestState is the resumable progress record for one document.
// It exists only between pagination and the final batch step.
//
// Invariant: ProcessedPages is monotonically non-decreasing across
// invocations and never exceeds TotalPages.
type IngestState struct {
	DocumentID     string
	TotalPages     int
	ProcessedPages int
	TotalChunks    int
	PageGroupCount int
	StartedAt      time.Time
}
