package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/poiesic/recall/core"
)

// Hit is a scored search candidate carrying an arbitrary payload.
type Hit[T any] struct {
	Id      core.ID
	Score   float64
	Payload T
}

// HybridScore lifts a semantic similarity with lexical evidence from text.
// An exact, case-insensitive occurrence of the whole query adds
// params.ExactMatchBoost; otherwise the fraction of distinct query words
// present in text scales params.PartialMatchBoost. The result never exceeds 1.
// semantic is expected in [0, 1]. query is matched as given; callers trim it.
func HybridScore(semantic float64, query, text string, params core.HybridScoreParams) float64 {
	if query == "" || text == "" {
		return min(semantic, 1.0)
	}
	query = strings.ToLower(query)
	text = strings.ToLower(text)

	score := semantic
	if strings.Contains(text, query) {
		score += params.ExactMatchBoost
	} else if overlap := wordOverlap(query, text); overlap > 0 {
		score += params.PartialMatchBoost * overlap
	}

	return min(score, 1.0)
}

// wordOverlap returns the fraction of distinct query words that appear in text.
func wordOverlap(query, text string) float64 {
	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return 0
	}
	textWords := wordSet(text)

	matching := 0
	for word := range queryWords {
		if _, ok := textWords[word]; ok {
			matching++
		}
	}
	return float64(matching) / float64(len(queryWords))
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Rerank rescores every hit with HybridScore and sorts by descending score.
// The output holds exactly the input hits; equal scores keep their input order.
func Rerank[T any](hits []Hit[T], query string, text func(T) string, params core.HybridScoreParams) []Hit[T] {
	out := make([]Hit[T], len(hits))
	for i, hit := range hits {
		hit.Score = HybridScore(hit.Score, query, text(hit.Payload), params)
		out[i] = hit
	}

	slices.SortStableFunc(out, func(a, b Hit[T]) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}
