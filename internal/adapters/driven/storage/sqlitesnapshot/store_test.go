package sqlitesnapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot() driven.Snapshot {
	now := time.Now().Truncate(time.Second)
	hnsw := domain.HNSWParams{M: 16, EfConstruction: 200, EfSearch: 50, Seed: 1}
	return driven.Snapshot{
		Libraries: []domain.Library{
			{ID: "lib-1", Name: "docs", Dimension: 3, Kind: domain.HNSW, HNSW: &hnsw, CreatedAt: now, UpdatedAt: now},
		},
		Documents: []domain.Document{
			{ID: "doc-1", LibraryID: "lib-1", Name: "d1", Metadata: map[string]any{"lang": "en"}, CreatedAt: now, UpdatedAt: now},
		},
		Chunks: []domain.Chunk{
			{ID: "chunk-1", DocumentID: "doc-1", Content: "hello", Embedding: []float32{1, 0, 0.5}, Metadata: map[string]any{"lang": "en"}, CreatedAt: now, UpdatedAt: now},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	snapshot := testSnapshot()
	require.NoError(t, store.Save(snapshot))

	loaded, err := store.Load()
	require.NoError(t, err)

	require.Len(t, loaded.Libraries, 1)
	lib := loaded.Libraries[0]
	assert.Equal(t, domain.HNSW, lib.Kind)
	require.NotNil(t, lib.HNSW)
	assert.Equal(t, 16, lib.HNSW.M)
	assert.Equal(t, []string{"doc-1"}, lib.DocumentIDs)

	require.Len(t, loaded.Documents, 1)
	assert.Equal(t, "en", loaded.Documents[0].Metadata["lang"])
	assert.Equal(t, []string{"chunk-1"}, loaded.Documents[0].ChunkIDs)

	require.Len(t, loaded.Chunks, 1)
	assert.InDeltaSlice(t, []float64{1, 0, 0.5}, toFloat64(loaded.Chunks[0].Embedding), 1e-9)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func TestLoad_EmptyDatabaseReturnsNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSave_ReplacesPriorContents(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(testSnapshot()))

	replacement := driven.Snapshot{
		Libraries: []domain.Library{{ID: "lib-2", Dimension: 2, Kind: domain.BruteForce}},
	}
	require.NoError(t, store.Save(replacement))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Libraries, 1)
	assert.Equal(t, "lib-2", loaded.Libraries[0].ID)
	assert.Empty(t, loaded.Chunks)
}
