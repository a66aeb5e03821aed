package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

// fixedProvider returns a pre-registered vector for a given text, so tests
// can drive exact geometry instead of depending on a hash function.
type fixedProvider struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	dimensions int
}

func newFixedProvider(dim int) *fixedProvider {
	return &fixedProvider{vectors: make(map[string][]float32), dimensions: dim}
}

func (p *fixedProvider) set(text string, vector []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vectors[text] = vector
}

func (p *fixedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, p.dimensions)
	for i := range v {
		v[i] = float32(len(text)+i) / 7
	}
	return v, nil
}

func (p *fixedProvider) Dimensions() int { return p.dimensions }

func setupLibraryWithChunks(t *testing.T, kind domain.IndexKind, hnswParams *domain.HNSWParams) (*LibraryService, domain.Library, *fixedProvider) {
	t.Helper()
	provider := newFixedProvider(3)
	provider.set("chunk1", []float32{1, 0, 0})
	provider.set("chunk2", []float32{0, 1, 0})
	provider.set("chunk3", []float32{0.9, 0.1, 0})
	provider.set("query", []float32{1, 0, 0})

	svc := NewLibraryService(provider)
	lib, err := svc.CreateLibrary("L1", "", kind, 3, hnswParams, nil)
	require.NoError(t, err)

	doc, err := svc.CreateDocument(lib.ID, "doc1", nil)
	require.NoError(t, err)

	for _, text := range []string{"chunk1", "chunk2", "chunk3"} {
		_, err := svc.AddChunk(context.Background(), doc.ID, text, nil)
		require.NoError(t, err)
	}
	return svc, lib, provider
}

// Scenario 1: brute force top-2 ranking.
func TestSearch_BruteForce_TopTwoByCosine(t *testing.T) {
	svc, lib, _ := setupLibraryWithChunks(t, domain.BruteForce, nil)

	hits, err := svc.Search(context.Background(), lib.ID, "query", 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "chunk1", hits[0].Chunk.Content)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "chunk3", hits[1].Chunk.Content)
	assert.InDelta(t, 0.9939, hits[1].Score, 1e-4)
}

// Scenario 2: HNSW with small ef matches brute force on the same setup.
func TestSearch_HNSW_MatchesBruteForceOnSmallSet(t *testing.T) {
	params := &domain.HNSWParams{M: 4, EfConstruction: 8, EfSearch: 8, Seed: 42}
	svc, lib, _ := setupLibraryWithChunks(t, domain.HNSW, params)

	hits, err := svc.Search(context.Background(), lib.ID, "query", 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "chunk1", hits[0].Chunk.Content)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "chunk3", hits[1].Chunk.Content)
	assert.InDelta(t, 0.9939, hits[1].Score, 1e-4)
}

// Scenario 3: dimension mismatch on insert.
func TestAddChunk_DimensionMismatch(t *testing.T) {
	provider := newFixedProvider(4)
	provider.set("bad", []float32{1, 2, 3})

	svc := NewLibraryService(provider)
	lib, err := svc.CreateLibrary("L", "", domain.BruteForce, 4, nil, nil)
	require.NoError(t, err)
	doc, err := svc.CreateDocument(lib.ID, "d", nil)
	require.NoError(t, err)

	_, err = svc.AddChunk(context.Background(), doc.ID, "bad", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

// Scenario 4: delete 50 of 100 chunks, search returns none of the deleted ids.
func TestDeleteChunks_SearchExcludesDeleted(t *testing.T) {
	provider := newFixedProvider(2)
	svc := NewLibraryService(provider)
	lib, err := svc.CreateLibrary("L", "", domain.BruteForce, 2, nil, nil)
	require.NoError(t, err)
	doc, err := svc.CreateDocument(lib.ID, "d", nil)
	require.NoError(t, err)

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		text := fmt.Sprintf("chunk-%03d", i)
		provider.set(text, []float32{float32(i), 1})
		chunk, err := svc.AddChunk(context.Background(), doc.ID, text, nil)
		require.NoError(t, err)
		ids = append(ids, chunk.ID)
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, svc.DeleteChunk(ids[i]))
	}

	provider.set("probe", []float32{99, 1})
	hits, err := svc.Search(context.Background(), lib.ID, "probe", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 10)

	deleted := make(map[string]bool)
	for i := 0; i < 50; i++ {
		deleted[ids[i]] = true
	}
	for _, h := range hits {
		assert.False(t, deleted[h.Chunk.ID])
	}
}

// Scenario 5: concurrent readers and one writer; no deadlock, final size correct.
func TestConcurrentSearchAndInsert_NoRaceNoDeadlock(t *testing.T) {
	provider := newFixedProvider(2)
	svc := NewLibraryService(provider)
	lib, err := svc.CreateLibrary("L", "", domain.BruteForce, 2, nil, nil)
	require.NoError(t, err)
	doc, err := svc.CreateDocument(lib.ID, "d", nil)
	require.NoError(t, err)

	const total = 1000
	var wg sync.WaitGroup

	provider.set("reader-query", []float32{1, 1})
	stop := make(chan struct{})
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_, _ = svc.Search(context.Background(), lib.ID, "reader-query", 5, nil)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			text := fmt.Sprintf("writer-chunk-%d", i)
			provider.set(text, []float32{float32(i % 7), float32(i % 5)})
			_, err := svc.AddChunk(context.Background(), doc.ID, text, nil)
			require.NoError(t, err)
		}
		close(stop)
	}()

	wg.Wait()

	st, err := svc.stateFor(lib.ID)
	require.NoError(t, err)
	assert.Equal(t, total, st.index.Size())
}

// Scenario 6: metadata filter restricts results to matching language.
func TestSearch_MetadataFilter_OnlyMatchingLanguage(t *testing.T) {
	provider := newFixedProvider(2)
	svc := NewLibraryService(provider)
	lib, err := svc.CreateLibrary("L", "", domain.BruteForce, 2, nil, nil)
	require.NoError(t, err)
	doc, err := svc.CreateDocument(lib.ID, "d", nil)
	require.NoError(t, err)

	provider.set("en-1", []float32{1, 0})
	provider.set("fr-1", []float32{0.99, 0.01})
	_, err = svc.AddChunk(context.Background(), doc.ID, "en-1", map[string]any{"lang": "en"})
	require.NoError(t, err)
	_, err = svc.AddChunk(context.Background(), doc.ID, "fr-1", map[string]any{"lang": "fr"})
	require.NoError(t, err)

	provider.set("q", []float32{1, 0})
	filter := domain.Filter{{Key: "lang", Op: domain.OpEq, Value: "en"}}
	hits, err := svc.Search(context.Background(), lib.ID, "q", 10, filter)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "en-1", hits[0].Chunk.Content)
}

func TestCreateLibrary_InvalidDimension(t *testing.T) {
	svc := NewLibraryService(newFixedProvider(3))
	_, err := svc.CreateLibrary("L", "", domain.BruteForce, 0, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestCreateLibrary_NegativeLSHParamsRejected(t *testing.T) {
	svc := NewLibraryService(newFixedProvider(3))

	_, err := svc.CreateLibrary("L", "", domain.LSH, 3, nil, &domain.LSHParams{L: -1, K: 10, Seed: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = svc.CreateLibrary("L", "", domain.LSH, 3, nil, &domain.LSHParams{L: 8, K: -1, Seed: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = svc.CreateLibrary("L", "", domain.LSH, 3, nil, &domain.LSHParams{L: 8, K: 10, ProbeDepth: -1, Seed: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestCreateLibrary_InvalidHNSWParamsRejected(t *testing.T) {
	svc := NewLibraryService(newFixedProvider(3))

	_, err := svc.CreateLibrary("L", "", domain.HNSW, 3, &domain.HNSWParams{M: 0, EfConstruction: 200, EfSearch: 50, Seed: 1}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = svc.CreateLibrary("L", "", domain.HNSW, 3, &domain.HNSWParams{M: 16, EfConstruction: -1, EfSearch: 50, Seed: 1}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	_, err = svc.CreateLibrary("L", "", domain.HNSW, 3, &domain.HNSWParams{M: 16, EfConstruction: 200, EfSearch: -1, Seed: 1}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestDeleteLibrary_CascadesToDocumentsAndChunks(t *testing.T) {
	svc, lib, _ := setupLibraryWithChunks(t, domain.BruteForce, nil)
	lib, err := svc.GetLibrary(lib.ID)
	require.NoError(t, err)
	require.NotEmpty(t, lib.DocumentIDs)
	require.NoError(t, svc.DeleteLibrary(lib.ID))

	_, err = svc.GetLibrary(lib.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Empty(t, svc.documents.ListByLibrary(lib.ID))
	for _, docID := range lib.DocumentIDs {
		assert.Empty(t, svc.chunks.ListByDocument(docID))
	}

	_, err = svc.Search(context.Background(), lib.ID, "query", 1, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRebuildIndex_PreservesSearchResults(t *testing.T) {
	svc, lib, _ := setupLibraryWithChunks(t, domain.BruteForce, nil)

	before, err := svc.Search(context.Background(), lib.ID, "query", 2, nil)
	require.NoError(t, err)

	require.NoError(t, svc.RebuildIndex(lib.ID))

	after, err := svc.Search(context.Background(), lib.ID, "query", 2, nil)
	require.NoError(t, err)

	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].Chunk.ID, after[i].Chunk.ID)
	}
}
