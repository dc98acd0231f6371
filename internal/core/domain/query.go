package domain

import "time"

// QueryIntent classifies what kind of answer the user is after.
type QueryIntent string

const (
	// IntentGeneral is the default, free-form question intent.
	IntentGeneral QueryIntent = "general"

	// IntentDetailLookup targets a specific rating, value or identifier.
	IntentDetailLookup QueryIntent = "detail-lookup"

	// IntentDiagramStructure asks about topology: what feeds what.
	IntentDiagramStructure QueryIntent = "diagram-structure"
)

// Valid reports whether i is a known intent.
func (i QueryIntent) Valid() bool {
	switch i {
	case IntentGeneral, IntentDetailLookup, IntentDiagramStructure:
		return true
	}
	return false
}

// OutputMode selects the shape of the drafted answer.
type OutputMode string

const (
	// OutputText requests a natural-language answer with citations.
	OutputText OutputMode = "text"

	// OutputDiagram requests a structured nodes/edges answer. Its
	// validity is enforced at drafting time, so verification is skipped.
	OutputDiagram OutputMode = "diagram"
)

// SearchMode reports which scoring signals were available for a query.
type SearchMode string

const (
	// SearchModeHybrid means vector similarity was combined with lexical score.
	SearchModeHybrid SearchMode = "hybrid"

	// SearchModeLexical means embeddings were unavailable and scoring
	// degraded to lexical signals only.
	SearchModeLexical SearchMode = "lexical-only"
)

// QueryOptions narrows and shapes a query.
type QueryOptions struct {
	// DocumentID restricts retrieval to one document. Empty means all.
	DocumentID string

	// Panel and Voltage are substring filters on extracted tags.
	Panel   string
	Voltage string

	// Mode selects the answer shape. Defaults to OutputText.
	Mode OutputMode

	// TopK is the number of final matches. Defaults to 5.
	TopK int
}

// Match is a retrieved chunk with its relevance score.
type Match struct {
	Chunk Chunk
	Score float64
}

// QueryResult is the full outcome of one query pipeline run.
type QueryResult struct {
	Answer     string
	Matches    []Match
	Intent     QueryIntent
	SearchMode SearchMode
}

// QueryLog is an append-only audit record. It has no further lifecycle.
type QueryLog struct {
	ID         string
	Query      string
	Answer     string // truncated to a fixed length before persisting
	MatchCount int
	CreatedAt  time.Time
}
