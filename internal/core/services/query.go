package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
	"github.com/custodia-labs/voltdex/internal/logger"
	"github.com/custodia-labs/voltdex/internal/score"
	"github.com/custodia-labs/voltdex/internal/vocab"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

const (
	// DefaultTopK is the number of matches returned to the caller.
	DefaultTopK = 5

	// candidateLimit is how many scored chunks enter re-ranking.
	candidateLimit = 20

	// answerLogLimit truncates answers before they hit the query log.
	answerLogLimit = 500
)

// QueryService answers questions over indexed chunks through a staged
// pipeline: route, retrieve, re-rank, draft, verify. Every stage that
// depends on the LLM or embeddings has a deterministic fallback.
type QueryService struct {
	chunkStore driven.ChunkStore
	logStore   driven.QueryLogStore // optional
	llm        driven.LLMService    // optional
	embedder   *EmbeddingClient
	vocab      *vocab.Vocabulary

	now func() time.Time
}

// NewQueryService creates a query service. logStore and llm may be nil.
func NewQueryService(
	chunkStore driven.ChunkStore,
	logStore driven.QueryLogStore,
	llm driven.LLMService,
	embedder *EmbeddingClient,
	v *vocab.Vocabulary,
) *QueryService {
	if v == nil {
		v = vocab.Builtin()
	}
	return &QueryService{
		chunkStore: chunkStore,
		logStore:   logStore,
		llm:        llm,
		embedder:   embedder,
		vocab:      v,
		now:        time.Now,
	}
}

// Query runs the full pipeline. Only input validation returns an error;
// provider failures degrade stage by stage.
func (s *QueryService) Query(ctx context.Context, query string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Mode == "" {
		opts.Mode = domain.OutputText
	}

	logger.Section("Query Pipeline")
	logger.Debug("Query: %q", query)

	intent, keywords := s.route(ctx, query)
	logger.Info("Intent: %s, %d expanded keywords", intent, len(keywords))

	matches, searchMode, err := s.retrieve(ctx, query, keywords, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("Retrieved %d candidates (%s)", len(matches), searchMode)

	matches = s.rerank(ctx, query, matches, opts.TopK)

	answer := s.draft(ctx, query, matches, opts.Mode)

	// Diagram output is structured JSON; the verifier would rewrite it
	// as prose. Text answers are always checked, whatever the intent.
	if opts.Mode != domain.OutputDiagram {
		answer = s.verify(ctx, query, answer, matches)
	}

	s.logQuery(ctx, query, answer, len(matches))

	return &domain.QueryResult{
		Answer:     answer,
		Matches:    matches,
		Intent:     intent,
		SearchMode: searchMode,
	}, nil
}

// retrieve scans the chunk store, scores every candidate and keeps the
// top candidateLimit above the score floor.
func (s *QueryService) retrieve(
	ctx context.Context, query string, keywords []string, opts domain.QueryOptions,
) ([]domain.Match, domain.SearchMode, error) {
	chunks, err := s.chunkStore.ScanChunks(ctx, driven.ChunkFilter{
		DocumentID: opts.DocumentID,
		Panel:      opts.Panel,
		Voltage:    opts.Voltage,
	})
	if err != nil {
		return nil, "", fmt.Errorf("scan chunks: %w", err)
	}

	queryVec := s.embedder.Embed(ctx, query)
	searchMode := domain.SearchModeHybrid
	if len(queryVec) == 0 {
		searchMode = domain.SearchModeLexical
	}

	expanded := query
	if len(keywords) > 0 {
		expanded = query + " " + strings.Join(keywords, " ")
	}

	var matches []domain.Match
	for _, chunk := range chunks {
		lex := score.Lexical(query, chunk.Content)
		// The expanded term set can only add signal, never veto the
		// raw query.
		if exp := score.Lexical(expanded, chunk.Content); exp > lex {
			lex = exp
		}

		hybrid := score.Hybrid(queryVec, chunk.Embedding, lex)
		if hybrid < score.ScoreFloor {
			continue
		}
		matches = append(matches, domain.Match{Chunk: chunk, Score: hybrid})
	}

	score.Rank(matches)
	if len(matches) > candidateLimit {
		matches = matches[:candidateLimit]
	}
	return matches, searchMode, nil
}

// logQuery appends to the query log, best effort.
func (s *QueryService) logQuery(ctx context.Context, query, answer string, matchCount int) {
	if s.logStore == nil {
		return
	}
	if len(answer) > answerLogLimit {
		cut := answerLogLimit
		// Back off to a rune boundary so the stored text stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(answer[cut]) {
			cut--
		}
		answer = answer[:cut]
	}
	entry := &domain.QueryLog{
		ID:         uuid.NewString(),
		Query:      query,
		Answer:     answer,
		MatchCount: matchCount,
		CreatedAt:  s.now(),
	}
	if err := s.logStore.AppendQueryLog(ctx, entry); err != nil {
		logger.Warn("Could not write query log: %v", err)
	}
}
