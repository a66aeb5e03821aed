package lsh

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
)

func testParams() domain.LSHParams {
	return domain.LSHParams{L: 8, K: 6, ProbeDepth: 0, Seed: 3}
}

func TestInsert_DimensionMismatch(t *testing.T) {
	idx := New(4, testParams())
	err := idx.Insert("c1", []float32{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestInsert_Duplicate(t *testing.T) {
	idx := New(2, testParams())
	require.NoError(t, idx.Insert("c1", []float32{1, 0}))
	err := idx.Insert("c1", []float32{0, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestSearchKNN_FindsNearestAmongManyTables(t *testing.T) {
	idx := New(4, domain.LSHParams{L: 16, K: 8, ProbeDepth: 2, Seed: 11})
	for i := 0; i < 200; i++ {
		v := make([]float32, 4)
		for d := range v {
			v[d] = float32((i*7+d*3)%17) - 8
		}
		require.NoError(t, idx.Insert(fmt.Sprintf("id-%d", i), v))
	}
	require.NoError(t, idx.Insert("target", []float32{1, 2, 3, 4}))

	hits, err := idx.SearchKNN([]float32{1, 2, 3, 4}, 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "target", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestDeleteThenSearch_ExcludesDeletedIDs(t *testing.T) {
	idx := New(2, domain.LSHParams{L: 8, K: 4, Seed: 5})
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("chunk-%03d", i)
		require.NoError(t, idx.Insert(id, []float32{float32(i), 1}))
	}
	for i := 0; i < 30; i++ {
		ok := idx.Delete(fmt.Sprintf("chunk-%03d", i))
		assert.True(t, ok)
	}
	assert.Equal(t, 30, idx.Size())

	hits, err := idx.SearchKNN([]float32{59, 1}, 30, nil)
	require.NoError(t, err)
	for _, h := range hits {
		var n int
		_, scanErr := fmt.Sscanf(h.ID, "chunk-%03d", &n)
		require.NoError(t, scanErr)
		assert.GreaterOrEqual(t, n, 30)
	}
}

func TestDelete_UnknownID(t *testing.T) {
	idx := New(2, testParams())
	require.NoError(t, idx.Insert("a", []float32{1, 0}))
	assert.False(t, idx.Delete("missing"))
	assert.True(t, idx.Delete("a"))
	assert.Equal(t, 0, idx.Size())
}

func TestSearchKNN_EmptyIndex(t *testing.T) {
	idx := New(2, testParams())
	hits, err := idx.SearchKNN([]float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchKNN_Filter(t *testing.T) {
	idx := New(2, testParams())
	require.NoError(t, idx.Insert("en-1", []float32{1, 0}))
	require.NoError(t, idx.Insert("fr-1", []float32{0.99, 0.01}))

	onlyEnglish := func(id string) bool { return id == "en-1" }
	hits, err := idx.SearchKNN([]float32{1, 0}, 10, onlyEnglish)
	require.NoError(t, err)
	for _, h := range hits {
		assert.Equal(t, "en-1", h.ID)
	}
}

func TestMultiProbe_WidensWhenExactBucketsEmpty(t *testing.T) {
	// One table with one hyperplane: v and -v fall on opposite sides, so
	// -v's exact bucket is empty and a single bit flip reaches v's bucket.
	idx := New(3, domain.LSHParams{L: 1, K: 1, ProbeDepth: 1, Seed: 21})
	require.NoError(t, idx.Insert("a", []float32{1, 2, 3}))
	query := []float32{-1, -2, -3}

	assert.Empty(t, idx.buckets[0][idx.signature(0, query)])
	found := idx.candidates(query)
	assert.True(t, found["a"])
}

func TestBuild_ReplacesContents(t *testing.T) {
	idx := New(2, testParams())
	require.NoError(t, idx.Insert("stale", []float32{1, 1}))

	err := idx.Build([]driven.Entry{{ID: "fresh", Vector: []float32{0, 1}}})
	require.NoError(t, err)

	assert.Equal(t, 1, idx.Size())
	assert.False(t, idx.Delete("stale"))
	assert.True(t, idx.Delete("fresh"))
}
