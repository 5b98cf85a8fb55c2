package similarity

import (
	"cmp"
	"fmt"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	// parallelThreshold is the candidate count above which scoring fans out.
	parallelThreshold = 2048
	chunkSize         = 512
)

// Match is one candidate that survived TopK filtering.
type Match struct {
	Index int     // position in the candidate slice
	Score float64 // cosine similarity in [-1, 1]
}

// CosineSimilarity computes the cosine similarity between two vectors.
// It returns 0 for empty, degenerate or mismatched input.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return cosine(a, b)
}

// Cosine computes the cosine similarity between two vectors of equal length.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	return cosine(a, b), nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	// Rounding can push identical vectors a hair past 1.
	return max(-1, min(1, score))
}

// Scores computes the similarity of query against every candidate, in candidate order.
// Empty candidate vectors score 0. A non-empty candidate whose length differs
// from the query is an ErrDimensionMismatch.
func Scores(query []float32, candidates [][]float32) ([]float64, error) {
	scores := make([]float64, len(candidates))
	if len(candidates) == 0 {
		return scores, nil
	}

	if len(candidates) < parallelThreshold {
		if err := scoreRange(query, candidates, scores, 0, len(candidates)); err != nil {
			return nil, err
		}
		return scores, nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(candidates); start += chunkSize {
		end := min(start+chunkSize, len(candidates))
		g.Go(func() error {
			return scoreRange(query, candidates, scores, start, end)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// scoreRange fills scores[start:end]. Each chunk owns a disjoint range.
func scoreRange(query []float32, candidates [][]float32, scores []float64, start, end int) error {
	for i := start; i < end; i++ {
		vec := candidates[i]
		if len(vec) == 0 {
			continue
		}
		score, err := Cosine(query, vec)
		if err != nil {
			return fmt.Errorf("candidate %d: %w", i, err)
		}
		scores[i] = score
	}
	return nil
}

// TopK returns up to k candidates whose similarity to query is at least threshold,
// ordered by descending score. Equal scores keep candidate order.
func TopK(query []float32, candidates [][]float32, k int, threshold float64) ([]Match, error) {
	if k <= 0 || len(candidates) == 0 {
		return []Match{}, nil
	}

	scores, err := Scores(query, candidates)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, min(k, len(scores)))
	for i, score := range scores {
		if score < threshold {
			continue
		}
		matches = append(matches, Match{Index: i, Score: score})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
