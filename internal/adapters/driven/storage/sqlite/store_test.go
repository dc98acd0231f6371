package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func testDocument(id string, createdAt time.Time) *domain.Document {
	return &domain.Document{
		ID:        id,
		Name:      "switchboard-schedule.pdf",
		SourceRef: "/docs/" + id + ".pdf",
		MIMEType:  "application/pdf",
		Status:    domain.StatusUploaded,
		CreatedAt: createdAt,
	}
}

func TestDocumentLifecycle(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, docs.SaveDocument(ctx, testDocument("doc-1", created)))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "switchboard-schedule.pdf", got.Name)
	assert.Equal(t, domain.StatusUploaded, got.Status)
	assert.True(t, got.CreatedAt.Equal(created))

	require.NoError(t, docs.UpdateStatus(ctx, "doc-1", domain.StatusError, "source unavailable"))
	got, err = docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "source unavailable", got.StatusMessage)

	// Upsert keeps the row count at one.
	got.PageCount = 12
	require.NoError(t, docs.SaveDocument(ctx, got))
	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 12, list[0].PageCount)

	require.NoError(t, docs.DeleteDocument(ctx, "doc-1"))
	_, err = docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentNotFound(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	_, err := docs.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = docs.UpdateStatus(ctx, "missing", domain.StatusIndexed, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDocumentsNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, docs.SaveDocument(ctx, testDocument("old", base)))
	require.NoError(t, docs.SaveDocument(ctx, testDocument("new", base.Add(time.Hour))))

	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
}

func testChunk(id, docID, content string, embedding []float32) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: docID,
		Content:    content,
		PageNumber: 1,
		Tags: domain.Tags{
			Panel:       "MDP-1",
			Voltage:     "480V",
			Components:  []string{"breaker"},
			Connections: []domain.Connection{{From: "MDP-1", To: "LP-2"}},
		},
		Embedding: embedding,
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestChunkRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	saved := testChunk("c1", "doc-1", "MDP-1 feeds panel LP-2 at 480V", []float32{0.5, -1.25, 2})
	require.NoError(t, chunks.SaveChunks(ctx, []domain.Chunk{saved}))

	got, err := chunks.ScanChunks(ctx, driven.ChunkFilter{DocumentID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, saved.Content, got[0].Content)
	assert.Equal(t, saved.Tags.Panel, got[0].Tags.Panel)
	assert.Equal(t, saved.Tags.Components, got[0].Tags.Components)
	assert.Equal(t, saved.Tags.Connections, got[0].Tags.Connections)
	assert.Equal(t, []float32{0.5, -1.25, 2}, got[0].Embedding)
}

func TestScanChunksFilters(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	a := testChunk("a", "doc-1", "main distribution", []float32{1})
	b := testChunk("b", "doc-1", "lighting panel", nil)
	b.Tags.Panel = "LP-2"
	b.Tags.Voltage = "208V"
	c := testChunk("c", "doc-2", "other document", []float32{1})
	require.NoError(t, chunks.SaveChunks(ctx, []domain.Chunk{a, b, c}))

	tests := []struct {
		name    string
		filter  driven.ChunkFilter
		wantIDs []string
	}{
		{"all", driven.ChunkFilter{}, []string{"a", "b", "c"}},
		{"by document", driven.ChunkFilter{DocumentID: "doc-1"}, []string{"a", "b"}},
		{"panel substring is case-insensitive", driven.ChunkFilter{Panel: "lp-2"}, []string{"b"}},
		{"voltage exact", driven.ChunkFilter{Voltage: "480v"}, []string{"a", "c"}},
		{"missing embedding", driven.ChunkFilter{MissingEmbedding: true}, []string{"b"}},
		{"combined", driven.ChunkFilter{DocumentID: "doc-1", Voltage: "480V"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chunks.ScanChunks(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, chunk := range got {
				ids[i] = chunk.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestUpdateEmbedding(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	require.NoError(t, chunks.SaveChunks(ctx, []domain.Chunk{testChunk("c1", "doc-1", "text", nil)}))

	require.NoError(t, chunks.UpdateEmbedding(ctx, "c1", []float32{0.1, 0.2}))
	got, err := chunks.ScanChunks(ctx, driven.ChunkFilter{MissingEmbedding: true})
	require.NoError(t, err)
	assert.Empty(t, got)

	err = chunks.UpdateEmbedding(ctx, "missing", []float32{1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCountAndDeleteChunks(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	require.NoError(t, chunks.SaveChunks(ctx, []domain.Chunk{
		testChunk("a", "doc-1", "one", nil),
		testChunk("b", "doc-1", "two", nil),
		testChunk("c", "doc-2", "three", nil),
	}))

	count, err := chunks.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, chunks.DeleteChunks(ctx, "doc-1"))
	count, err = chunks.CountChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = chunks.CountChunks(ctx, "doc-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestStateRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	states := store.IngestStateStore()
	ctx := context.Background()

	state := &domain.IngestState{
		DocumentID:     "doc-1",
		TotalPages:     25,
		ProcessedPages: 10,
		TotalChunks:    40,
		PageGroupCount: 3,
		StartedAt:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, states.SaveState(ctx, state))

	got, err := states.GetState(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 25, got.TotalPages)
	assert.Equal(t, 10, got.ProcessedPages)

	// Progress updates replace the row.
	state.ProcessedPages = 20
	require.NoError(t, states.SaveState(ctx, state))
	got, err = states.GetState(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 20, got.ProcessedPages)

	require.NoError(t, states.DeleteState(ctx, "doc-1"))
	_, err = states.GetState(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPageGroupsOrderedByIndex(t *testing.T) {
	store := setupTestStore(t)
	states := store.IngestStateStore()
	ctx := context.Background()

	groups := []domain.PageGroup{
		{DocumentID: "doc-1", Index: 1, Pages: []domain.Page{{Number: 3, Text: "page three"}}},
		{DocumentID: "doc-1", Index: 0, Pages: []domain.Page{{Number: 1, Text: "page one"}, {Number: 2, Text: "page two"}}},
	}
	require.NoError(t, states.SavePageGroups(ctx, groups))

	got, err := states.GetPageGroups(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, "page one", got[0].Pages[0].Text)
	assert.Equal(t, 1, got[1].Index)

	// Saving again replaces the previous groups.
	require.NoError(t, states.SavePageGroups(ctx, []domain.PageGroup{
		{DocumentID: "doc-1", Index: 0, Pages: []domain.Page{{Number: 1, Text: "replacement"}}},
	}))
	got, err = states.GetPageGroups(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "replacement", got[0].Pages[0].Text)

	require.NoError(t, states.DeletePageGroups(ctx, "doc-1"))
	got, err = states.GetPageGroups(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryLogNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	logs := store.QueryLogStore()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		require.NoError(t, logs.AppendQueryLog(ctx, &domain.QueryLog{
			ID:         q,
			Query:      q + " query",
			Answer:     "answer",
			MatchCount: i,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := logs.ListQueryLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening the same directory must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, store.Path())
	require.NoError(t, store.Close())
}
