package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
)

// fakeIngest is a minimal scripted ingest service for command tests.
type fakeIngest struct {
	docs      []domain.Document
	status    driving.ProcessStatus
	sync      driving.SyncReport
	deletedID string
}

var _ driving.IngestService = (*fakeIngest)(nil)

func (f *fakeIngest) CreateDocument(_ context.Context, name, sourceRef string) (*domain.Document, error) {
	return &domain.Document{ID: "doc-1", Name: name, SourceRef: sourceRef}, nil
}

func (f *fakeIngest) ProcessDocument(context.Context, string) error { return nil }

func (f *fakeIngest) ProcessBatch(context.Context, string) (*driving.BatchStepResult, error) {
	return &driving.BatchStepResult{Result: domain.BatchIndexed, ProcessedPages: 3, TotalPages: 3}, nil
}

func (f *fakeIngest) EmbedChunks(context.Context, string) (*driving.EmbedResult, error) {
	return &driving.EmbedResult{Embedded: 3, Remaining: 0}, nil
}

func (f *fakeIngest) Status(context.Context, string) (*driving.ProcessStatus, error) {
	return &f.status, nil
}

func (f *fakeIngest) ListDocuments(context.Context) ([]domain.Document, error) {
	return f.docs, nil
}

func (f *fakeIngest) DeleteDocument(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

func (f *fakeIngest) SyncFolder(context.Context, string) (*driving.SyncReport, error) {
	return &f.sync, nil
}

// fakeQuery returns a fixed answer.
type fakeQuery struct {
	gotQuery string
	gotOpts  domain.QueryOptions
}

var _ driving.QueryService = (*fakeQuery)(nil)

func (f *fakeQuery) Query(_ context.Context, query string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	f.gotQuery = query
	f.gotOpts = opts
	return &domain.QueryResult{
		Answer:     "800A per busbar section [chunk 1]",
		Intent:     domain.IntentDetailLookup,
		SearchMode: domain.SearchModeHybrid,
		Matches:    []domain.Match{{Chunk: domain.Chunk{DocumentID: "doc-1", PageNumber: 2}, Score: 0.8}},
	}, nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestProcessCommandWait(t *testing.T) {
	ingest := &fakeIngest{status: driving.ProcessStatus{
		Status: domain.StatusIndexed, TotalPages: 3, TotalChunks: 3, EmbeddedChunks: 3,
	}}
	Initialize(Deps{Ingest: ingest, Query: &fakeQuery{}})

	out, err := execute(t, "process", "drawings/one-line.pdf", "--wait=true")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered one-line.pdf as doc-1")
	assert.Contains(t, out, "indexed")
}

func TestQueryCommand(t *testing.T) {
	query := &fakeQuery{}
	Initialize(Deps{Ingest: &fakeIngest{}, Query: query})

	out, err := execute(t, "query", "what", "is", "the", "busbar", "rating?", "--voltage", "480V", "--top-k", "3")
	require.NoError(t, err)

	assert.Equal(t, "what is the busbar rating?", query.gotQuery)
	assert.Equal(t, "480V", query.gotOpts.Voltage)
	assert.Equal(t, 3, query.gotOpts.TopK)
	assert.Contains(t, out, "800A per busbar section")
	assert.Contains(t, out, "search: hybrid")
}

func TestSyncCommand(t *testing.T) {
	ingest := &fakeIngest{sync: driving.SyncReport{Found: 2, Indexed: 2}}
	Initialize(Deps{Ingest: ingest, Query: &fakeQuery{}})

	out, err := execute(t, "sync", "drawings/")
	require.NoError(t, err)
	assert.Contains(t, out, "2 found, 2 indexed, 0 failed")
}

func TestDocumentsListAndDelete(t *testing.T) {
	ingest := &fakeIngest{docs: []domain.Document{
		{ID: "doc-1", Name: "schedule.pdf", Status: domain.StatusIndexed, PageCount: 4},
	}}
	Initialize(Deps{Ingest: ingest, Query: &fakeQuery{}})

	out, err := execute(t, "documents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "schedule.pdf")

	_, err = execute(t, "documents", "delete", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", ingest.deletedID)
}

func TestCommandsRequireInitialization(t *testing.T) {
	Initialize(Deps{})

	_, err := execute(t, "sync", "drawings/")
	assert.True(t, errors.Is(err, errNotInitialized))
}
