package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
	"github.com/custodia-labs/voltdex/internal/logger"
	"github.com/custodia-labs/voltdex/internal/segment"
	"github.com/custodia-labs/voltdex/internal/textextract"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const (
	// DefaultBatchBudget bounds the wall-clock time of one ProcessBatch
	// or EmbedChunks invocation. Checked before each page, so one slow
	// page can overrun it slightly.
	DefaultBatchBudget = 240 * time.Second

	// DefaultPageGroupBytes caps the serialised size of one page group
	// so every group fits a single row-store value.
	DefaultPageGroupBytes = 8 << 10
)

// IngestService runs the document pipeline: fetch, extract, paginate,
// then time-bounded batch steps that segment, tag and embed each page.
// All progress lives in the stores; the service itself is stateless
// across invocations.
type IngestService struct {
	docStore   driven.DocumentStore
	chunkStore driven.ChunkStore
	stateStore driven.IngestStateStore
	source     driven.DocumentSource
	extractor  *textextract.Extractor
	tagger     *TagExtractor
	embedder   *EmbeddingClient

	segCfg  segment.Config
	pageCfg segment.PageConfig

	budget     time.Duration
	groupBytes int
	now        func() time.Time
}

// NewIngestService creates an ingest service with default budgets.
func NewIngestService(
	docStore driven.DocumentStore,
	chunkStore driven.ChunkStore,
	stateStore driven.IngestStateStore,
	source driven.DocumentSource,
	extractor *textextract.Extractor,
	tagger *TagExtractor,
	embedder *EmbeddingClient,
	segCfg segment.Config,
) *IngestService {
	return &IngestService{
		docStore:   docStore,
		chunkStore: chunkStore,
		stateStore: stateStore,
		source:     source,
		extractor:  extractor,
		tagger:     tagger,
		embedder:   embedder,
		segCfg:     segCfg,
		budget:     DefaultBatchBudget,
		groupBytes: DefaultPageGroupBytes,
		now:        time.Now,
	}
}

// SetBatchBudget overrides the per-invocation time budget.
func (s *IngestService) SetBatchBudget(d time.Duration) {
	if d > 0 {
		s.budget = d
	}
}

// CreateDocument registers a document in uploaded status.
func (s *IngestService) CreateDocument(ctx context.Context, name, sourceRef string) (*domain.Document, error) {
	if name == "" || sourceRef == "" {
		return nil, fmt.Errorf("name and sourceRef are required: %w", domain.ErrInvalidInput)
	}

	doc := &domain.Document{
		ID:        uuid.NewString(),
		Name:      name,
		SourceRef: sourceRef,
		Status:    domain.StatusUploaded,
		CreatedAt: s.now(),
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Registered document %s (%s)", doc.ID, doc.Name)
	return doc, nil
}

// ProcessDocument runs extraction and pagination, leaving the document
// in processing status with an ingest state ready for batch steps.
// Reprocessing an indexed or errored document is allowed and starts
// from a clean slate.
func (s *IngestService) ProcessDocument(ctx context.Context, documentID string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	logger.Section("Document Processing")
	logger.Info("Processing %s (%s)", doc.ID, doc.Name)

	if err := s.setStatus(ctx, doc.ID, domain.StatusExtracting, ""); err != nil {
		return err
	}

	data, mimeType, err := s.source.FetchBytes(ctx, doc.SourceRef)
	if err != nil {
		msg := fmt.Sprintf("source fetch failed for %q: %v", doc.Name, err)
		s.failDocument(ctx, doc.ID, msg)
		return fmt.Errorf("%s: %w", msg, domain.ErrSourceUnavailable)
	}
	if doc.MIMEType == "" && mimeType != "" {
		doc.MIMEType = mimeType
	}

	text, strategy, err := s.extractor.Extract(ctx, data, doc.MIMEType)
	if err != nil {
		msg := fmt.Sprintf("no extractable text in %q (image-only or unsupported format)", doc.Name)
		s.failDocument(ctx, doc.ID, msg)
		// Idempotency: a failed reprocess leaves no stale chunks behind.
		s.cleanupIngest(ctx, doc.ID)
		return fmt.Errorf("%s: %w", msg, err)
	}
	logger.Info("Extracted %d chars via %s strategy", len(text), strategy)

	pages := segment.SplitPages(text, s.pageCfg)
	groups := packPageGroups(doc.ID, pages, s.groupBytes)
	logger.Info("Split into %d pages, %d page groups", len(pages), len(groups))

	// Reprocessing starts clean: drop previous chunks, state and groups.
	s.cleanupIngest(ctx, doc.ID)

	if err := s.stateStore.SavePageGroups(ctx, groups); err != nil {
		return fmt.Errorf("save page groups: %w", err)
	}
	if err := s.stateStore.SaveState(ctx, &domain.IngestState{
		DocumentID:     doc.ID,
		TotalPages:     len(pages),
		PageGroupCount: len(groups),
		StartedAt:      s.now(),
	}); err != nil {
		return fmt.Errorf("save ingest state: %w", err)
	}

	doc.PageCount = len(pages)
	doc.Status = domain.StatusProcessing
	doc.StatusMessage = fmt.Sprintf("extracted via %s", strategy)
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// ProcessBatch performs one time-bounded batch step. Progress persists
// after every page, so an interrupted step resumes where it stopped.
func (s *IngestService) ProcessBatch(ctx context.Context, documentID string) (*driving.BatchStepResult, error) {
	state, err := s.stateStore.GetState(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("document %s has no ingestion in flight: %w",
			documentID, domain.ErrNotProcessing)
	}
	if err != nil {
		return nil, err
	}

	pages, err := s.loadPages(ctx, documentID)
	if err != nil {
		return nil, err
	}

	logger.Section("Batch Step")
	logger.Info("Resuming at page %d/%d", state.ProcessedPages+1, state.TotalPages)

	start := s.now()
	added := 0

	for idx := state.ProcessedPages; idx < len(pages); idx++ {
		if s.now().Sub(start) > s.budget {
			logger.Info("Time budget reached at page %d/%d", idx, len(pages))
			return &driving.BatchStepResult{
				Result:         domain.BatchInProgress,
				ProcessedPages: state.ProcessedPages,
				TotalPages:     state.TotalPages,
				ChunksAdded:    added,
			}, nil
		}

		n, err := s.processPage(ctx, documentID, pages[idx])
		if err != nil {
			return nil, err
		}
		added += n

		state.ProcessedPages = idx + 1
		state.TotalChunks += n
		if err := s.stateStore.SaveState(ctx, state); err != nil {
			return nil, fmt.Errorf("save ingest state: %w", err)
		}
	}

	// All pages done: drop the transient state and mark the document.
	if err := s.stateStore.DeleteState(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete ingest state: %w", err)
	}
	if err := s.stateStore.DeletePageGroups(ctx, documentID); err != nil {
		return nil, fmt.Errorf("delete page groups: %w", err)
	}
	if err := s.setStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		return nil, err
	}

	logger.Info("Document %s indexed: %d pages, %d chunks", documentID, state.TotalPages, state.TotalChunks)
	return &driving.BatchStepResult{
		Result:         domain.BatchIndexed,
		ProcessedPages: state.ProcessedPages,
		TotalPages:     state.TotalPages,
		ChunksAdded:    added,
	}, nil
}

// processPage segments one page and writes its chunks.
func (s *IngestService) processPage(ctx context.Context, documentID string, page domain.Page) (int, error) {
	frags := segment.SegmentPage(page.Text, page.Number, s.segCfg)

	chunks := make([]domain.Chunk, 0, len(frags))
	for _, frag := range frags {
		chunks = append(chunks, domain.Chunk{
			ID:         ulid.Make().String(),
			DocumentID: documentID,
			Content:    frag.Content,
			PageNumber: frag.PageNumber,
			Tags:       s.tagger.Extract(ctx, frag.Content),
			Embedding:  s.embedder.Embed(ctx, frag.Content),
			CreatedAt:  s.now(),
		})
	}

	if len(chunks) == 0 {
		return 0, nil
	}
	if err := s.chunkStore.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("save chunks for page %d: %w", page.Number, err)
	}
	return len(chunks), nil
}

// EmbedChunks backfills embeddings for chunks that have none, bounded
// by the batch time budget. Already-embedded chunks are never touched.
func (s *IngestService) EmbedChunks(ctx context.Context, documentID string) (*driving.EmbedResult, error) {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	missing, err := s.chunkStore.ScanChunks(ctx, driven.ChunkFilter{
		DocumentID:       documentID,
		MissingEmbedding: true,
	})
	if err != nil {
		return nil, err
	}

	start := s.now()
	embedded := 0
	for _, chunk := range missing {
		if s.now().Sub(start) > s.budget {
			break
		}
		vec := s.embedder.Embed(ctx, chunk.Content)
		if len(vec) == 0 {
			continue
		}
		if err := s.chunkStore.UpdateEmbedding(ctx, chunk.ID, vec); err != nil {
			return nil, fmt.Errorf("update embedding: %w", err)
		}
		embedded++
	}

	logger.Info("Embedded %d of %d pending chunks for %s", embedded, len(missing), documentID)
	return &driving.EmbedResult{
		Embedded:  embedded,
		Remaining: len(missing) - embedded,
	}, nil
}

// Status reports pipeline progress for one document.
func (s *IngestService) Status(ctx context.Context, documentID string) (*driving.ProcessStatus, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	status := &driving.ProcessStatus{
		DocumentID:    doc.ID,
		Status:        doc.Status,
		StatusMessage: doc.StatusMessage,
		TotalPages:    doc.PageCount,
	}

	total, err := s.chunkStore.CountChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}
	status.TotalChunks = total

	missing, err := s.chunkStore.ScanChunks(ctx, driven.ChunkFilter{
		DocumentID:       documentID,
		MissingEmbedding: true,
	})
	if err != nil {
		return nil, err
	}
	status.EmbeddedChunks = total - len(missing)

	state, err := s.stateStore.GetState(ctx, documentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status.Phase = phaseWithoutState(doc.Status)
		status.ProcessedPages = doc.PageCount
		if status.Phase == domain.PhaseNotStarted || status.Phase == domain.PhaseError {
			status.ProcessedPages = 0
		}
	case err != nil:
		return nil, err
	default:
		status.TotalPages = state.TotalPages
		status.ProcessedPages = state.ProcessedPages
		if state.ProcessedPages == 0 {
			status.Phase = domain.PhasePaginating
		} else {
			status.Phase = domain.PhaseBatching
		}
	}

	return status, nil
}

// phaseWithoutState maps a document status to an ingest phase when no
// transient state row exists.
func phaseWithoutState(status domain.DocumentStatus) domain.IngestPhase {
	switch status {
	case domain.StatusUploaded:
		return domain.PhaseNotStarted
	case domain.StatusExtracting:
		return domain.PhaseExtracting
	case domain.StatusProcessing:
		// State row missing while processing means pagination is mid-write.
		return domain.PhasePaginating
	case domain.StatusIndexed:
		return domain.PhaseIndexed
	default:
		return domain.PhaseError
	}
}

// ListDocuments returns all registered documents.
func (s *IngestService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// DeleteDocument removes a document, its chunks and any ingest state.
func (s *IngestService) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	s.cleanupIngest(ctx, documentID)
	return s.docStore.DeleteDocument(ctx, documentID)
}

// SyncFolder ingests every new file under folderRef, driving each one
// to a terminal status before moving to the next.
func (s *IngestService) SyncFolder(ctx context.Context, folderRef string) (*driving.SyncReport, error) {
	if folderRef == "" {
		return nil, fmt.Errorf("folderRef is required: %w", domain.ErrInvalidInput)
	}

	files, err := s.source.ListNewFiles(ctx, folderRef, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list folder %q: %w", folderRef, err)
	}

	known := make(map[string]struct{})
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		known[d.SourceRef] = struct{}{}
	}

	logger.Section("Folder Sync")
	report := &driving.SyncReport{}

	for _, f := range files {
		if _, ok := known[f.Ref]; ok {
			continue
		}
		report.Found++

		doc, err := s.CreateDocument(ctx, f.Name, f.Ref)
		if err != nil {
			report.Failed++
			continue
		}
		doc.MIMEType = f.MIMEType
		if err := s.docStore.SaveDocument(ctx, doc); err != nil {
			report.Failed++
			continue
		}

		if err := s.driveToTerminal(ctx, doc.ID); err != nil {
			logger.Warn("Sync of %q failed: %v", f.Name, err)
			report.Failed++
			continue
		}
		report.Indexed++
	}

	logger.Info("Sync complete: %d found, %d indexed, %d failed", report.Found, report.Indexed, report.Failed)
	return report, nil
}

// driveToTerminal runs the pipeline for one document until it is indexed.
func (s *IngestService) driveToTerminal(ctx context.Context, documentID string) error {
	if err := s.ProcessDocument(ctx, documentID); err != nil {
		return err
	}
	for {
		step, err := s.ProcessBatch(ctx, documentID)
		if err != nil {
			return err
		}
		if step.Result == domain.BatchIndexed {
			return nil
		}
	}
}

// setStatus updates document status, logging illegal transitions rather
// than failing: the stores are the source of truth and a racing writer
// has already moved the document on.
func (s *IngestService) setStatus(ctx context.Context, documentID string, status domain.DocumentStatus, message string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if !doc.Status.CanTransition(status) {
		logger.Warn("Illegal status transition %s -> %s for %s", doc.Status, status, documentID)
	}
	return s.docStore.UpdateStatus(ctx, documentID, status, message)
}

// failDocument moves a document to error status, best effort.
func (s *IngestService) failDocument(ctx context.Context, documentID, message string) {
	if err := s.docStore.UpdateStatus(ctx, documentID, domain.StatusError, message); err != nil {
		logger.Warn("Could not record error status for %s: %v", documentID, err)
	}
}

// cleanupIngest drops chunks, ingest state and page groups, best effort.
func (s *IngestService) cleanupIngest(ctx context.Context, documentID string) {
	if err := s.chunkStore.DeleteChunks(ctx, documentID); err != nil {
		logger.Warn("Could not delete chunks for %s: %v", documentID, err)
	}
	if err := s.stateStore.DeleteState(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Could not delete ingest state for %s: %v", documentID, err)
	}
	if err := s.stateStore.DeletePageGroups(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Could not delete page groups for %s: %v", documentID, err)
	}
}

// loadPages rebuilds the ordered page list from the persisted groups.
func (s *IngestService) loadPages(ctx context.Context, documentID string) ([]domain.Page, error) {
	groups, err := s.stateStore.GetPageGroups(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load page groups: %w", err)
	}
	var pages []domain.Page
	for _, g := range groups {
		pages = append(pages, g.Pages...)
	}
	return pages, nil
}

// packPageGroups packs consecutive pages into groups whose combined
// text stays under byteLimit. A single page larger than the limit gets
// a group of its own.
func packPageGroups(documentID string, pages []domain.Page, byteLimit int) []domain.PageGroup {
	var groups []domain.PageGroup
	var current []domain.Page
	size := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		groups = append(groups, domain.PageGroup{
			DocumentID: documentID,
			Index:      len(groups),
			Pages:      current,
		})
		current = nil
		size = 0
	}

	for _, p := range pages {
		if size > 0 && size+len(p.Text) > byteLimit {
			flush()
		}
		current = append(current, p)
		size += len(p.Text)
	}
	flush()
	return groups
}
