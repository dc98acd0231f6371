package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// DefaultPollInterval is the pause between batch steps when driving a
// document to completion.
const DefaultPollInterval = 2 * time.Second

// BatchPoller drives a document's batch steps until it is indexed.
// Used by the CLI and folder watching; the HTTP boundary leaves
// stepping to the caller.
type BatchPoller struct {
	ingest   driving.IngestService
	interval time.Duration

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatchPoller creates a poller with the default interval.
func NewBatchPoller(ingest driving.IngestService) *BatchPoller {
	return &BatchPoller{
		ingest:   ingest,
		interval: DefaultPollInterval,
		sleep:    sleepCtx,
	}
}

// SetInterval overrides the pause between steps.
func (p *BatchPoller) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

// Run processes a document end to end: ProcessDocument, then batch
// steps until indexed, then one embedding backfill pass per remaining
// gap. It returns the final status.
func (p *BatchPoller) Run(ctx context.Context, documentID string) (*driving.ProcessStatus, error) {
	if err := p.ingest.ProcessDocument(ctx, documentID); err != nil {
		return nil, err
	}

	for {
		step, err := p.ingest.ProcessBatch(ctx, documentID)
		if err != nil {
			return nil, err
		}
		logger.Info("Batch step: %s (%d/%d pages)", step.Result, step.ProcessedPages, step.TotalPages)
		if step.Result == domain.BatchIndexed {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}

	for {
		res, err := p.ingest.EmbedChunks(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if res.Remaining == 0 || res.Embedded == 0 {
			// Done, or the embedding backend is down; either way there
			// is no progress to wait for.
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}

	return p.ingest.Status(ctx, documentID)
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("polling interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
