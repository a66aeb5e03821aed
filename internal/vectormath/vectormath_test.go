package vectormath

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarity_Identical(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarity_NearIdentical(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0, 0}, []float32{0.9, 0.1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.9939, sim, 1e-4)
}

func TestCosineSimilarity_ZeroVectorIsZeroNotNaN(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestCosineDistance(t *testing.T) {
	dist, err := CosineDistance([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, dist, 1e-9)
}

func TestNorm(t *testing.T) {
	assert.InDelta(t, 5.0, Norm([]float32{3, 4}), 1e-9)
	assert.Equal(t, 0.0, Norm([]float32{0, 0, 0}))
}

func TestCosineSimilarityWithNorm(t *testing.T) {
	a := []float32{3, 4}
	na := Norm(a)
	sim, err := CosineSimilarityWithNorm(a, na, []float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}
