package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/logger"
)

// Stage prompts for the query pipeline. Each stage is a separate LLM
// call with its own fallback, so one flaky response never sinks the
// whole query.

const routerPrompt = `Classify the question about electrical documentation.

Respond with ONLY a JSON object, no other text:
{"intent": "general|detail-lookup|diagram-structure", "keywords": []}

- "detail-lookup": asks for a specific value, rating or attribute.
- "diagram-structure": asks what feeds, supplies or connects to what.
- "general": anything else.
- "keywords": up to 8 search terms implied by the question.

Question: %s`

const rerankPrompt = `Rank the numbered passages by relevance to the question.

Respond with ONLY a JSON array of passage numbers, most relevant first,
for example [3, 1, 2]. Include at most %d numbers.

Question: %s

Passages:
%s`

const draftTextPrompt = `Answer the question using ONLY the numbered context passages.
Cite the page markers (like "[Page 3]") for every fact you state.
If the context does not contain the answer, say so plainly.

Question: %s

Context:
%s`

const draftDiagramPrompt = `Describe the electrical topology asked about, using ONLY the
numbered context passages.

Respond with ONLY a JSON object, no other text:
{"nodes": [{"id": "", "label": ""}], "edges": [{"from": "", "to": "", "label": ""}]}

Include only equipment and connections stated in the context.

Question: %s

Context:
%s`

const verifyPrompt = `Check the draft answer against the context passages. Fix any value,
identifier or page citation that contradicts the context. Do not add
information. Respond with the corrected answer only.

Question: %s

Draft answer:
%s

Context:
%s`

// noAnswerText is returned when drafting has nothing to work with or
// every provider path failed. It is an answer, not an error.
const noAnswerText = "No answer could be generated: the indexed documents contain no " +
	"content matching the question, or the language model was unavailable."

// contextTokenBudget bounds the packed context per LLM call.
const contextTokenBudget = 6000

// candidateExcerptLen truncates each passage shown to the re-ranker.
const candidateExcerptLen = 300

// route classifies the query intent and collects expanded keywords.
// The specialist intents always get their static vocabulary injection,
// whatever the model returned.
func (s *QueryService) route(ctx context.Context, query string) (domain.QueryIntent, []string) {
	intent := domain.IntentGeneral
	var keywords []string

	if s.llm != nil {
		raw, err := s.llm.Generate(ctx, fmt.Sprintf(routerPrompt, query), driven.GenerateOptions{
			MaxTokens:   256,
			Temperature: 0,
		})
		if err == nil {
			var parsed struct {
				Intent   string   `json:"intent"`
				Keywords []string `json:"keywords"`
			}
			if jsonErr := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); jsonErr == nil {
				if candidate := domain.QueryIntent(parsed.Intent); candidate.Valid() {
					intent = candidate
				}
				keywords = parsed.Keywords
			} else {
				logger.Debug("Router response unparseable, defaulting to general: %v", jsonErr)
			}
		} else {
			logger.Debug("Router call failed, defaulting to general: %v", err)
		}
	}

	keywords = append(keywords, s.vocab.ExpansionsFor(string(intent))...)
	return intent, dedupeStrings(keywords)
}

// rerank asks the LLM to reorder the candidates and keeps the first k.
// Anything wrong with the response falls back to score order.
func (s *QueryService) rerank(ctx context.Context, query string, candidates []domain.Match, k int) []domain.Match {
	if len(candidates) <= k {
		return candidates
	}

	fallback := candidates[:k]
	if s.llm == nil {
		return fallback
	}

	var b strings.Builder
	for i, m := range candidates {
		excerpt := m.Chunk.Content
		if len(excerpt) > candidateExcerptLen {
			excerpt = excerpt[:candidateExcerptLen]
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, excerpt)
	}

	raw, err := s.llm.Generate(ctx, fmt.Sprintf(rerankPrompt, k, query, b.String()), driven.GenerateOptions{
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		logger.Debug("Re-rank call failed, keeping score order: %v", err)
		return fallback
	}

	var order []int
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &order); err != nil {
		logger.Debug("Re-rank response unparseable, keeping score order: %v", err)
		return fallback
	}

	picked := make([]domain.Match, 0, k)
	seen := make(map[int]struct{}, k)
	for _, n := range order {
		if n < 1 || n > len(candidates) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		picked = append(picked, candidates[n-1])
		if len(picked) == k {
			break
		}
	}
	if len(picked) == 0 {
		return fallback
	}
	// The LLM order supersedes the retrieval scores; replace them with
	// a synthetic reciprocal-rank score so the result stays descending.
	for i := range picked {
		picked[i].Score = 1.0 / float64(i+1)
	}
	return picked
}

// draft produces the answer from the final matches.
func (s *QueryService) draft(ctx context.Context, query string, matches []domain.Match, mode domain.OutputMode) string {
	if len(matches) == 0 || s.llm == nil {
		return noAnswerText
	}

	prompt := draftTextPrompt
	if mode == domain.OutputDiagram {
		prompt = draftDiagramPrompt
	}

	answer, err := s.llm.Generate(ctx,
		fmt.Sprintf(prompt, query, packContext(matches, contextTokenBudget)),
		driven.GenerateOptions{MaxTokens: 2048, Temperature: 0.2})
	if err != nil {
		logger.Debug("Draft call failed: %v", err)
		return noAnswerText
	}

	answer = strings.TrimSpace(answer)
	if mode == domain.OutputDiagram {
		answer = stripCodeFences(answer)
		if !json.Valid([]byte(answer)) {
			logger.Debug("Diagram draft is not valid JSON, returning no-answer text")
			return noAnswerText
		}
	}
	if answer == "" {
		return noAnswerText
	}
	return answer
}

// verify runs the discrepancy check over the drafted answer. Any
// failure keeps the draft.
func (s *QueryService) verify(ctx context.Context, query, answer string, matches []domain.Match) string {
	if s.llm == nil || answer == noAnswerText || len(matches) == 0 {
		return answer
	}

	verified, err := s.llm.Generate(ctx,
		fmt.Sprintf(verifyPrompt, query, answer, packContext(matches, contextTokenBudget)),
		driven.GenerateOptions{MaxTokens: 2048, Temperature: 0})
	if err != nil {
		logger.Debug("Verify call failed, keeping draft: %v", err)
		return answer
	}

	verified = strings.TrimSpace(verified)
	if verified == "" {
		return answer
	}
	return verified
}

// packContext renders numbered passages into a context block bounded by
// a token budget. Passages are added whole, in match order, until the
// budget runs out.
func packContext(matches []domain.Match, tokenBudget int) string {
	var b strings.Builder
	used := 0
	for i, m := range matches {
		passage := fmt.Sprintf("%d. %s\n\n", i+1, m.Chunk.Content)
		cost := tokenCount(passage)
		if used+cost > tokenBudget && used > 0 {
			break
		}
		b.WriteString(passage)
		used += cost
	}
	return strings.TrimSpace(b.String())
}

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// tokenCount counts tokens with the cl100k_base encoding. When the
// encoding cannot be loaded (offline first run) it estimates four
// characters per token, which overshoots rarely enough for a budget.
func tokenCount(s string) int {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logger.Debug("tiktoken unavailable, estimating token counts: %v", err)
			return
		}
		encoder = enc
	})
	if encoder == nil {
		return len(s) / 4
	}
	return len(encoder.Encode(s, nil, nil))
}

// dedupeStrings removes duplicates case-insensitively, keeping first-seen order.
func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
