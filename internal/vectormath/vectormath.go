// Package vectormath provides the dense-vector operations shared by every
// index family: dot product, norm, and cosine similarity/distance.
package vectormath

import (
	"fmt"
	"math"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

// Dot returns the dot product of a and b. Returns domain.ErrDimensionMismatch
// if len(a) != len(b).
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dot: %w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// Norm returns the Euclidean (L2) norm of v, always >= 0.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns cosine(a, b) in [-1, 1]. By definition, if either
// vector has zero norm, similarity is 0 — not NaN. Returns
// domain.ErrDimensionMismatch if len(a) != len(b).
func CosineSimilarity(a, b []float32) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, fmt.Errorf("cosine similarity: %w", err)
	}

	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (na * nb), nil
}

// CosineDistance returns 1 - CosineSimilarity(a, b).
func CosineDistance(a, b []float32) (float64, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

// CosineSimilarityWithNorm is CosineSimilarity but accepts a's precomputed
// norm, avoiding recomputation when the caller caches it (e.g. an index
// that stores norms alongside vectors). na must equal Norm(a).
func CosineSimilarityWithNorm(a []float32, na float64, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity: %w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}
	nb := Norm(b)
	return CosineWithNorms(a, na, b, nb), nil
}

// CosineWithNorms computes cosine similarity given both operands'
// precomputed norms, skipping dimension validation entirely. Callers must
// ensure len(a) == len(b) themselves; this is the hot path used by indexes
// that cache a norm per stored vector and cannot afford a second pass to
// validate lengths on every comparison.
func CosineWithNorms(a []float32, na float64, b []float32, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
