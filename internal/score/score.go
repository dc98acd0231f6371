// Package score implements the relevance model used for chunk retrieval:
// a lexical scorer over query terms, cosine similarity over embeddings,
// and the hybrid combination of the two. All functions are pure.
package score

import (
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/voltdex/internal/core/domain"
)

// Hybrid combination weights. Tunable; they must sum to 1.
const (
	VectorWeight  = 0.6
	LexicalWeight = 0.4
)

// ScoreFloor is the minimum hybrid score a chunk needs to stay in the
// candidate set. Tunable.
const ScoreFloor = 0.05

// Lexical sub-weights. Tunable as a group; the clamp in Lexical keeps
// the total in [0, 1] regardless.
const (
	phraseWeight    = 0.5  // whole query appears verbatim
	termWeight      = 0.1  // per matched distinct term
	freqBonusStep   = 0.025 // extra per repeat occurrence of a term
	freqBonusCap    = 0.05  // saturates at three occurrences
	coverageWeight  = 0.2  // fraction of query terms matched
	bigramWeight    = 0.1  // any adjacent query pair appears verbatim
	proximityWeight = 0.1  // two distinct terms within proximityWindow
	proximityWindow = 120  // characters
)

// Lexical scores content against a query in [0, 1]. The query is
// tokenised on whitespace; matching is case-insensitive substring
// matching, which keeps identifiers like "MDP-1" intact.
func Lexical(query, content string) float64 {
	query = strings.TrimSpace(query)
	if query == "" || content == "" {
		return 0
	}

	lcQuery := strings.ToLower(query)
	lcContent := strings.ToLower(content)

	score := 0.0
	if strings.Contains(lcContent, lcQuery) {
		score += phraseWeight
	}

	terms := distinctTerms(lcQuery)
	if len(terms) == 0 {
		return clamp01(score)
	}

	matched := 0
	var positions []int
	for _, term := range terms {
		n := strings.Count(lcContent, term)
		if n == 0 {
			continue
		}
		matched++
		score += termWeight
		score += math.Min(float64(n-1)*freqBonusStep, freqBonusCap)
		positions = append(positions, strings.Index(lcContent, term))
	}

	score += coverageWeight * float64(matched) / float64(len(terms))

	for i := 0; i+1 < len(terms); i++ {
		if strings.Contains(lcContent, terms[i]+" "+terms[i+1]) {
			score += bigramWeight
			break
		}
	}

	if proximate(positions) {
		score += proximityWeight
	}

	return clamp01(score)
}

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// Mismatched dimensions or a zero-norm vector yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Hybrid blends cosine and lexical scores. When either embedding is
// absent, or the two differ in dimensionality, the lexical score
// stands alone, so retrieval keeps working for chunks that were never
// embedded or were embedded by a different provider.
func Hybrid(queryEmbedding, chunkEmbedding []float32, lexical float64) float64 {
	if len(queryEmbedding) == 0 || len(queryEmbedding) != len(chunkEmbedding) {
		return lexical
	}
	return VectorWeight*Cosine(queryEmbedding, chunkEmbedding) + LexicalWeight*lexical
}

// Rank sorts matches by descending score. The sort is stable so equal
// scores keep store order, which makes results reproducible.
func Rank(matches []domain.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

// distinctTerms splits a lowercased query on whitespace, dropping
// duplicates but keeping first-seen order.
func distinctTerms(lcQuery string) []string {
	fields := strings.Fields(lcQuery)
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// proximate reports whether at least two distinct matched terms occur
// within proximityWindow characters of each other.
func proximate(positions []int) bool {
	if len(positions) < 2 {
		return false
	}
	sort.Ints(positions)
	for i := 0; i+1 < len(positions); i++ {
		if positions[i+1]-positions[i] <= proximityWindow {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
