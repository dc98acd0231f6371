package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

func TestDocumentStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	_, err := store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	doc := &domain.Document{ID: "d1", Name: "panel.pdf", Status: domain.StatusUploaded}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "panel.pdf", got.Name)

	require.NoError(t, store.UpdateStatus(ctx, "d1", domain.StatusError, "boom"))
	got, err = store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, got.Status)
	assert.Equal(t, "boom", got.StatusMessage)

	require.NoError(t, store.DeleteDocument(ctx, "d1"))
	_, err = store.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStoreScanFilters(t *testing.T) {
	ctx := context.Background()
	store := NewChunkStore()

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Tags: domain.Tags{Panel: "MDP-1", Voltage: "480V"}, Embedding: []float32{1}},
		{ID: "c2", DocumentID: "d1", Tags: domain.Tags{Panel: "LP-2", Voltage: "208V"}},
		{ID: "c3", DocumentID: "d2", Tags: domain.Tags{Panel: "MDP-1", Voltage: "480V"}},
	}))

	byDoc, err := store.ScanChunks(ctx, driven.ChunkFilter{DocumentID: "d1"})
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)
	assert.Equal(t, "c1", byDoc[0].ID, "insertion order preserved")

	byPanel, err := store.ScanChunks(ctx, driven.ChunkFilter{Panel: "mdp"})
	require.NoError(t, err)
	assert.Len(t, byPanel, 2)

	byVoltage, err := store.ScanChunks(ctx, driven.ChunkFilter{Voltage: "208v"})
	require.NoError(t, err)
	assert.Len(t, byVoltage, 1)

	missing, err := store.ScanChunks(ctx, driven.ChunkFilter{MissingEmbedding: true})
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	require.NoError(t, store.UpdateEmbedding(ctx, "c2", []float32{0.5}))
	missing, err = store.ScanChunks(ctx, driven.ChunkFilter{MissingEmbedding: true})
	require.NoError(t, err)
	assert.Len(t, missing, 1)

	count, err := store.CountChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.DeleteChunks(ctx, "d1"))
	count, err = store.CountChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Zero(t, count)

	remaining, err := store.ScanChunks(ctx, driven.ChunkFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestIngestStateStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewIngestStateStore()

	_, err := store.GetState(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SaveState(ctx, &domain.IngestState{DocumentID: "d1", TotalPages: 9}))
	state, err := store.GetState(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 9, state.TotalPages)

	groups := []domain.PageGroup{
		{DocumentID: "d1", Index: 1, Pages: []domain.Page{{Number: 3, Text: "c"}}},
		{DocumentID: "d1", Index: 0, Pages: []domain.Page{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}}},
	}
	require.NoError(t, store.SavePageGroups(ctx, groups))

	got, err := store.GetPageGroups(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index, "groups ordered by index")

	require.NoError(t, store.DeleteState(ctx, "d1"))
	require.NoError(t, store.DeletePageGroups(ctx, "d1"))
	_, err = store.GetState(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryLogStoreNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewQueryLogStore()

	for _, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, store.AppendQueryLog(ctx, &domain.QueryLog{ID: id}))
	}

	entries, err := store.ListQueryLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "q3", entries[0].ID)
	assert.Equal(t, "q2", entries[1].ID)
}
