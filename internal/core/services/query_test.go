package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/voltdex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
)

func seedChunks(t *testing.T, store *memory.ChunkStore, contents ...string) {
	t.Helper()
	chunks := make([]domain.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = domain.Chunk{
			ID:         string(rune('a' + i)),
			DocumentID: "d1",
			Content:    c,
			PageNumber: i + 1,
		}
	}
	require.NoError(t, store.SaveChunks(context.Background(), chunks))
}

func TestQueryRejectsEmptyInput(t *testing.T) {
	svc := NewQueryService(memory.NewChunkStore(), nil, nil, NewEmbeddingClient(nil), nil)

	_, err := svc.Query(context.Background(), "   ", domain.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryBusbarRatingOrdering(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store,
		"[Page 1] the busbar rating is 800A for the main switchboard section",
		"[Page 2] busbar sections are copper; a rating table follows on the next sheet",
		"[Page 3] the busbar runs the length of the board",
		"[Page 4] lighting fixture schedule for the mezzanine",
	)

	svc := NewQueryService(store, nil, nil, NewEmbeddingClient(nil), nil)

	res, err := svc.Query(context.Background(), "busbar rating", domain.QueryOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.SearchModeLexical, res.SearchMode)
	assert.Equal(t, domain.IntentGeneral, res.Intent)

	// Phrase match beats scattered terms beats single term; the
	// unrelated chunk falls below the score floor.
	require.Len(t, res.Matches, 3)
	assert.Equal(t, 1, res.Matches[0].Chunk.PageNumber)
	assert.Equal(t, 2, res.Matches[1].Chunk.PageNumber)
	assert.Equal(t, 3, res.Matches[2].Chunk.PageNumber)
	assert.Greater(t, res.Matches[0].Score, res.Matches[1].Score)
	assert.Greater(t, res.Matches[1].Score, res.Matches[2].Score)

	// No LLM configured: the literal no-answer text, not an error.
	assert.Equal(t, noAnswerText, res.Answer)
}

func TestQueryLexicalOnlyWhenEmbeddingFails(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store, "[Page 1] busbar rating 800A")

	embedder := NewEmbeddingClient(&stubEmbedder{err: assert.AnError})
	svc := NewQueryService(store, nil, nil, embedder, nil)

	res, err := svc.Query(context.Background(), "busbar rating", domain.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeLexical, res.SearchMode)
	assert.NotEmpty(t, res.Answer)
	assert.NotEmpty(t, res.Matches)
}

func TestQueryHybridModeWithEmbeddings(t *testing.T) {
	store := memory.NewChunkStore()
	require.NoError(t, store.SaveChunks(context.Background(), []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "[Page 1] busbar rating 800A", Embedding: []float32{1, 0}},
		{ID: "c2", DocumentID: "d1", Content: "[Page 2] busbar rating table", Embedding: []float32{0, 1}},
	}))

	embedder := NewEmbeddingClient(&stubEmbedder{vec: []float32{1, 0}})
	svc := NewQueryService(store, nil, nil, embedder, nil)

	res, err := svc.Query(context.Background(), "busbar rating", domain.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeHybrid, res.SearchMode)
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "c1", res.Matches[0].Chunk.ID, "vector similarity must break the lexical tie")
}

// pipelineLLM scripts the four stages: route, rerank, draft, verify.
func pipelineLLM(route, rerank, draft, verify string) *stubLLM {
	return &stubLLM{responses: []string{route, rerank, draft, verify}}
}

func TestQueryRerankReorders(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store,
		"[Page 1] breaker panel alpha breaker rating",
		"[Page 2] breaker panel bravo breaker rating",
		"[Page 3] breaker panel charlie breaker rating",
	)

	llm := pipelineLLM(
		`{"intent": "general", "keywords": []}`,
		`[3, 1]`,
		"The charlie panel answer [Page 3]",
		"The charlie panel answer [Page 3]",
	)
	svc := NewQueryService(store, nil, llm, NewEmbeddingClient(nil), nil)

	res, err := svc.Query(context.Background(), "breaker rating", domain.QueryOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 3, res.Matches[0].Chunk.PageNumber)
	assert.Equal(t, 1, res.Matches[1].Chunk.PageNumber)
	// Reordering replaces the retrieval scores so they stay descending.
	assert.Greater(t, res.Matches[0].Score, res.Matches[1].Score)
	assert.Equal(t, "The charlie panel answer [Page 3]", res.Answer)
}

func TestQueryRerankParseFailureKeepsScoreOrder(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store,
		"[Page 1] busbar rating 800A main section",
		"[Page 2] busbar detail with rating note",
		"[Page 3] busbar only mentioned here",
	)

	llm := pipelineLLM(
		`{"intent": "general", "keywords": []}`,
		`I think passage three is best`, // not JSON
		"Answer [Page 1]",
		"Answer [Page 1]",
	)
	svc := NewQueryService(store, nil, llm, NewEmbeddingClient(nil), nil)

	res, err := svc.Query(context.Background(), "busbar rating", domain.QueryOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	// Score order stands when the re-ranker response is unusable.
	assert.Equal(t, 1, res.Matches[0].Chunk.PageNumber)
	assert.Equal(t, 2, res.Matches[1].Chunk.PageNumber)
}

func TestQueryRouterFailureDefaultsToGeneral(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store, "[Page 1] busbar rating 800A")

	llm := &stubLLM{
		errAt:     map[int]bool{0: true},
		responses: []string{"", "Answer [Page 1]", "Answer [Page 1]"},
	}
	svc := NewQueryService(store, nil, llm, NewEmbeddingClient(nil), nil)

	res, err := svc.Query(context.Background(), "busbar rating", domain.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentGeneral, res.Intent)
	assert.Equal(t, "Answer [Page 1]", res.Answer)
}

func TestQuerySpecialistIntentGetsStaticExpansion(t *testing.T) {
	svc := NewQueryService(memory.NewChunkStore(), nil, &stubLLM{
		responses: []string{`{"intent": "diagram-structure", "keywords": ["MDP-1"]}`},
	}, NewEmbeddingClient(nil), nil)

	intent, keywords := svc.route(context.Background(), "what feeds MDP-1?")
	assert.Equal(t, domain.IntentDiagramStructure, intent)
	assert.Contains(t, keywords, "MDP-1")
	assert.Contains(t, keywords, "upstream", "static vocabulary injection must apply")
	assert.Contains(t, keywords, "feeds")
}

func TestQueryVerifiesTextAnswerForDiagramIntent(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store, "[Page 1] MDP-1 feeds panel LP-2 via a 100A breaker")

	// One candidate, so no re-rank call: route, draft, verify.
	llm := &stubLLM{responses: []string{
		`{"intent": "diagram-structure", "keywords": []}`,
		"Draft: MDP-1 feeds LP-2 [Page 1]",
		"Verified: MDP-1 feeds LP-2 [Page 1]",
	}}
	svc := NewQueryService(store, nil, llm, NewEmbeddingClient(nil), nil)

	res, err := svc.Query(context.Background(), "what feeds LP-2?", domain.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentDiagramStructure, res.Intent)
	// Text output is verified regardless of intent.
	assert.Equal(t, "Verified: MDP-1 feeds LP-2 [Page 1]", res.Answer)
	assert.Equal(t, 3, llm.calls)
}

func TestQueryDiagramModeSkipsVerification(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store, "[Page 1] MDP-1 feeds panel LP-2 via a 100A breaker")

	diagram := `{"nodes": [{"id": "MDP-1", "label": "MDP-1"}], "edges": []}`
	llm := &stubLLM{responses: []string{
		`{"intent": "general", "keywords": []}`,
		diagram,
	}}
	svc := NewQueryService(store, nil, llm, NewEmbeddingClient(nil), nil)

	res, err := svc.Query(context.Background(), "what feeds LP-2?", domain.QueryOptions{
		Mode: domain.OutputDiagram,
	})
	require.NoError(t, err)
	assert.Equal(t, diagram, res.Answer)
	// Route and draft only; the JSON answer is returned untouched.
	assert.Equal(t, 2, llm.calls)
}

func TestQueryWritesLog(t *testing.T) {
	store := memory.NewChunkStore()
	seedChunks(t, store, "[Page 1] busbar rating 800A")
	logs := memory.NewQueryLogStore()

	svc := NewQueryService(store, logs, nil, NewEmbeddingClient(nil), nil)

	_, err := svc.Query(context.Background(), "busbar rating", domain.QueryOptions{})
	require.NoError(t, err)

	entries, err := logs.ListQueryLogs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "busbar rating", entries[0].Query)
	assert.Equal(t, 1, entries[0].MatchCount)
	assert.NotEmpty(t, entries[0].Answer)
}

func TestLogQueryTruncatesOnRuneBoundary(t *testing.T) {
	logs := memory.NewQueryLogStore()
	svc := NewQueryService(memory.NewChunkStore(), logs, nil, NewEmbeddingClient(nil), nil)

	// 600 bytes of three-byte runes; a byte-wise cut at the limit would
	// land mid-rune.
	answer := strings.Repeat("€", 200)
	svc.logQuery(context.Background(), "busbar rating", answer, 1)

	entries, err := logs.ListQueryLogs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.LessOrEqual(t, len(entries[0].Answer), answerLogLimit)
	assert.True(t, utf8.ValidString(entries[0].Answer))
}

func TestQueryDocumentFilter(t *testing.T) {
	store := memory.NewChunkStore()
	require.NoError(t, store.SaveChunks(context.Background(), []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "[Page 1] busbar rating 800A"},
		{ID: "c2", DocumentID: "d2", Content: "[Page 1] busbar rating 600A"},
	}))

	svc := NewQueryService(store, nil, nil, NewEmbeddingClient(nil), nil)

	res, err := svc.Query(context.Background(), "busbar rating", domain.QueryOptions{DocumentID: "d2"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "c2", res.Matches[0].Chunk.ID)
}

func TestPackContextRespectsBudget(t *testing.T) {
	matches := []domain.Match{
		{Chunk: domain.Chunk{Content: "first passage"}},
		{Chunk: domain.Chunk{Content: "second passage"}},
	}

	packed := packContext(matches, 1_000_000)
	assert.Contains(t, packed, "1. first passage")
	assert.Contains(t, packed, "2. second passage")

	// A tiny budget still includes the first passage.
	packed = packContext(matches, 1)
	assert.Contains(t, packed, "1. first passage")
	assert.NotContains(t, packed, "second")
}

func TestDedupeStrings(t *testing.T) {
	got := dedupeStrings([]string{"Rating", "rating", "", "  ", "amps", "Rating"})
	assert.Equal(t, []string{"Rating", "amps"}, got)
}

// Interface conformance for the test doubles.
var (
	_ driven.LLMService       = (*stubLLM)(nil)
	_ driven.EmbeddingService = (*stubEmbedder)(nil)
	_ driven.DocumentSource   = (*stubSource)(nil)
)
