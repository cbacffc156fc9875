package linesim

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/flarexio/linesim/vector"
)

// CosineSimilarity returns dot(a, b) / (|a| * |b|) clamped to [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])

		dot += x * y
		normA += x * x
		normB += y * y
	}

	if !usableNorm(normA) || !usableNorm(normB) {
		return 0, ErrZeroNorm
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	return math.Max(-1, math.Min(1, score)), nil
}

func usableNorm(n float64) bool {
	return n > 0 && !math.IsInf(n, 0) && !math.IsNaN(n)
}

// Rank scores every entry against the reference and sorts by score,
// highest first. Equal scores keep their scan order.
func Rank(reference []float32, entries []vector.Entry) ([]SimilarityResult, error) {
	results := make([]SimilarityResult, 0, len(entries))
	for _, entry := range entries {
		score, err := CosineSimilarity(reference, entry.Embedding)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.ID, err)
		}

		line, err := strconv.Atoi(entry.Metadata[vector.MetadataLineNumber])
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w: line number %q",
				entry.ID, vector.ErrInvalidEntry, entry.Metadata[vector.MetadataLineNumber])
		}

		results = append(results, SimilarityResult{
			Text:       entry.Document,
			Score:      score,
			LineNumber: line,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}
