package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
)

// scriptedIngest plays back prepared batch and embed results.
type scriptedIngest struct {
	processErr error
	steps      []driving.BatchStepResult
	embeds     []driving.EmbedResult
	status     driving.ProcessStatus

	stepIdx  int
	embedIdx int
}

var _ driving.IngestService = (*scriptedIngest)(nil)

func (s *scriptedIngest) CreateDocument(context.Context, string, string) (*domain.Document, error) {
	return nil, errors.New("not scripted")
}

func (s *scriptedIngest) ProcessDocument(context.Context, string) error {
	return s.processErr
}

func (s *scriptedIngest) ProcessBatch(context.Context, string) (*driving.BatchStepResult, error) {
	if s.stepIdx >= len(s.steps) {
		return nil, errors.New("no more batch steps scripted")
	}
	step := s.steps[s.stepIdx]
	s.stepIdx++
	return &step, nil
}

func (s *scriptedIngest) EmbedChunks(context.Context, string) (*driving.EmbedResult, error) {
	if s.embedIdx >= len(s.embeds) {
		return nil, errors.New("no more embed passes scripted")
	}
	res := s.embeds[s.embedIdx]
	s.embedIdx++
	return &res, nil
}

func (s *scriptedIngest) Status(context.Context, string) (*driving.ProcessStatus, error) {
	return &s.status, nil
}

func (s *scriptedIngest) ListDocuments(context.Context) ([]domain.Document, error) {
	return nil, nil
}

func (s *scriptedIngest) DeleteDocument(context.Context, string) error { return nil }

func (s *scriptedIngest) SyncFolder(context.Context, string) (*driving.SyncReport, error) {
	return nil, errors.New("not scripted")
}

func instantPoller(ingest driving.IngestService) (*BatchPoller, *int) {
	p := NewBatchPoller(ingest)
	sleeps := 0
	p.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}
	return p, &sleeps
}

func TestPollerDrivesToIndexed(t *testing.T) {
	ingest := &scriptedIngest{
		steps: []driving.BatchStepResult{
			{Result: domain.BatchInProgress, ProcessedPages: 10, TotalPages: 25},
			{Result: domain.BatchInProgress, ProcessedPages: 20, TotalPages: 25},
			{Result: domain.BatchIndexed, ProcessedPages: 25, TotalPages: 25},
		},
		embeds: []driving.EmbedResult{
			{Embedded: 20, Remaining: 5},
			{Embedded: 5, Remaining: 0},
		},
		status: driving.ProcessStatus{Status: domain.StatusIndexed, TotalChunks: 25, EmbeddedChunks: 25},
	}

	poller, sleeps := instantPoller(ingest)
	status, err := poller.Run(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusIndexed, status.Status)
	assert.Equal(t, 3, ingest.stepIdx)
	assert.Equal(t, 2, ingest.embedIdx)
	// Two pauses between batch steps, one between embed passes.
	assert.Equal(t, 3, *sleeps)
}

func TestPollerStopsWhenEmbeddingStalls(t *testing.T) {
	ingest := &scriptedIngest{
		steps: []driving.BatchStepResult{
			{Result: domain.BatchIndexed, ProcessedPages: 5, TotalPages: 5},
		},
		embeds: []driving.EmbedResult{
			// Embedding backend down: no progress, work remaining.
			{Embedded: 0, Remaining: 5},
		},
		status: driving.ProcessStatus{Status: domain.StatusIndexed, TotalChunks: 5, EmbeddedChunks: 0},
	}

	poller, _ := instantPoller(ingest)
	status, err := poller.Run(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, 1, ingest.embedIdx)
	assert.Equal(t, 0, status.EmbeddedChunks)
}

func TestPollerPropagatesProcessError(t *testing.T) {
	ingest := &scriptedIngest{processErr: domain.ErrSourceUnavailable}

	poller, _ := instantPoller(ingest)
	_, err := poller.Run(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestSleepCtxCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepCtx(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
