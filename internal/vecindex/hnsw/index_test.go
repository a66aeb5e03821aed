package hnsw

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

func testParams() domain.HNSWParams {
	return domain.HNSWParams{M: 4, EfConstruction: 8, EfSearch: 8, Seed: 42}
}

func TestSearchKNN_MatchesBruteForceOnSmallSet(t *testing.T) {
	idx := New(3, testParams())
	require.NoError(t, idx.Insert("chunk1", []float32{1, 0, 0}))
	require.NoError(t, idx.Insert("chunk2", []float32{0, 1, 0}))
	require.NoError(t, idx.Insert("chunk3", []float32{0.9, 0.1, 0}))

	hits, err := idx.SearchKNN([]float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "chunk1", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "chunk3", hits[1].ID)
	assert.InDelta(t, 0.9939, hits[1].Similarity, 1e-4)
}

func TestInsert_DimensionMismatch(t *testing.T) {
	idx := New(4, domain.DefaultHNSWParams())
	err := idx.Insert("c1", []float32{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
}

func TestInsert_Duplicate(t *testing.T) {
	idx := New(2, domain.DefaultHNSWParams())
	require.NoError(t, idx.Insert("c1", []float32{1, 0}))
	err := idx.Insert("c1", []float32{0, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestDeterministic_SameSeedSameOrderSameResults(t *testing.T) {
	build := func() *Index {
		idx := New(8, domain.HNSWParams{M: 8, EfConstruction: 32, EfSearch: 16, Seed: 7})
		for i := 0; i < 50; i++ {
			v := make([]float32, 8)
			for d := range v {
				v[d] = float32((i+1)*(d+1)%13) / 13
			}
			require.NoError(t, idx.Insert(fmt.Sprintf("id-%d", i), v))
		}
		return idx
	}

	a := build()
	b := build()

	query := []float32{0.5, 0.1, 0.2, 0.9, 0.3, 0.7, 0.4, 0.6}
	hitsA, err := a.SearchKNN(query, 5, nil)
	require.NoError(t, err)
	hitsB, err := b.SearchKNN(query, 5, nil)
	require.NoError(t, err)

	require.Equal(t, len(hitsA), len(hitsB))
	for i := range hitsA {
		assert.Equal(t, hitsA[i].ID, hitsB[i].ID)
		assert.InDelta(t, hitsA[i].Similarity, hitsB[i].Similarity, 1e-12)
	}
}

func TestDeleteThenSearch_ExcludesDeletedIDs(t *testing.T) {
	idx := New(2, domain.HNSWParams{M: 8, EfConstruction: 32, EfSearch: 20, Seed: 1})
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("chunk-%03d", i)
		require.NoError(t, idx.Insert(id, []float32{float32(i), 1}))
	}
	for i := 0; i < 50; i++ {
		ok := idx.Delete(fmt.Sprintf("chunk-%03d", i))
		assert.True(t, ok)
	}
	assert.Equal(t, 50, idx.Size())

	hits, err := idx.SearchKNN([]float32{99, 1}, 10, nil)
	require.NoError(t, err)
	for _, h := range hits {
		var n int
		_, scanErr := fmt.Sscanf(h.ID, "chunk-%03d", &n)
		require.NoError(t, scanErr)
		assert.GreaterOrEqual(t, n, 50)
	}
}

func TestDelete_EntryPointPromotesSurvivor(t *testing.T) {
	idx := New(2, domain.DefaultHNSWParams())
	require.NoError(t, idx.Insert("a", []float32{1, 0}))
	require.NoError(t, idx.Insert("b", []float32{0, 1}))

	entry := idx.entryPoint
	require.True(t, idx.Delete(entry))
	assert.Equal(t, 1, idx.Size())
	assert.NotEmpty(t, idx.entryPoint)
	assert.NotEqual(t, entry, idx.entryPoint)
}

func TestSearchKNN_EmptyIndex(t *testing.T) {
	idx := New(2, domain.DefaultHNSWParams())
	hits, err := idx.SearchKNN([]float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchKNN_Filter(t *testing.T) {
	idx := New(2, domain.DefaultHNSWParams())
	require.NoError(t, idx.Insert("en-1", []float32{1, 0}))
	require.NoError(t, idx.Insert("fr-1", []float32{0.99, 0.01}))

	onlyEnglish := func(id string) bool { return id == "en-1" }
	hits, err := idx.SearchKNN([]float32{1, 0}, 10, onlyEnglish)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "en-1", hits[0].ID)
}
