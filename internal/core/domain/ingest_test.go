package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestPhaseTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    IngestPhase
		to      IngestPhase
		allowed bool
	}{
		{"start extraction", PhaseNotStarted, PhaseExtracting, true},
		{"skip to batching", PhaseNotStarted, PhaseBatching, false},
		{"extracting to paginating", PhaseExtracting, PhasePaginating, true},
		{"paginating to batching", PhasePaginating, PhaseBatching, true},
		{"paginating straight to indexed", PhasePaginating, PhaseIndexed, true},
		{"batching repeats", PhaseBatching, PhaseBatching, true},
		{"batching to indexed", PhaseBatching, PhaseIndexed, true},
		{"error absorbs", PhaseError, PhaseIndexed, false},
		{"error reprocess", PhaseError, PhaseExtracting, true},
		{"indexed reprocess", PhaseIndexed, PhaseExtracting, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestErrorReachableFromEverywhere(t *testing.T) {
	for _, from := range []IngestPhase{PhaseNotStarted, PhaseExtracting, PhasePaginating, PhaseBatching} {
		assert.True(t, from.CanTransition(PhaseError), "error must be reachable from %q", from)
	}
}
