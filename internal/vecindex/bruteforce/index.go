// Package bruteforce implements the exact cosine k-NN index: a contiguous
// table of (id, vector, cached norm) scanned in full on every query.
// Deterministic and O(N*D) per query.
package bruteforce

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
	"github.com/custodia-labs/vectordb/internal/vectormath"
)

// Index is the exact brute-force vector index. Not safe for concurrent use
// without an external lock; the library service serializes access via the
// owning library's RWLock.
type Index struct {
	dim   int
	ids   []string
	vecs  [][]float32
	norms []float64
	pos   map[string]int
}

// New returns an empty brute-force index for vectors of the given dimension.
func New(dim int) *Index {
	return &Index{dim: dim, pos: make(map[string]int)}
}

var _ driven.VectorIndex = (*Index)(nil)

// Build discards any existing contents and populates the index from entries.
func (idx *Index) Build(entries []driven.Entry) error {
	ids := make([]string, 0, len(entries))
	vecs := make([][]float32, 0, len(entries))
	norms := make([]float64, 0, len(entries))
	pos := make(map[string]int, len(entries))

	for _, e := range entries {
		if len(e.Vector) != idx.dim {
			return fmt.Errorf("bruteforce build: %w: entry %q has dim %d, want %d", domain.ErrDimensionMismatch, e.ID, len(e.Vector), idx.dim)
		}
		if _, dup := pos[e.ID]; dup {
			return fmt.Errorf("bruteforce build: %w: %q", domain.ErrDuplicate, e.ID)
		}
		pos[e.ID] = len(ids)
		ids = append(ids, e.ID)
		vecs = append(vecs, e.Vector)
		norms = append(norms, vectormath.Norm(e.Vector))
	}

	idx.ids, idx.vecs, idx.norms, idx.pos = ids, vecs, norms, pos
	return nil
}

// Insert adds a single entry.
func (idx *Index) Insert(id string, vector []float32) error {
	if len(vector) != idx.dim {
		return fmt.Errorf("bruteforce insert: %w: got dim %d, want %d", domain.ErrDimensionMismatch, len(vector), idx.dim)
	}
	if _, dup := idx.pos[id]; dup {
		return fmt.Errorf("bruteforce insert: %w: %q", domain.ErrDuplicate, id)
	}
	idx.pos[id] = len(idx.ids)
	idx.ids = append(idx.ids, id)
	idx.vecs = append(idx.vecs, vector)
	idx.norms = append(idx.norms, vectormath.Norm(vector))
	return nil
}

// Delete removes id by swapping it with the last entry and truncating,
// keeping the backing slices dense. Order among remaining entries is not
// otherwise meaningful (search always re-sorts), so this is safe.
func (idx *Index) Delete(id string) bool {
	i, ok := idx.pos[id]
	if !ok {
		return false
	}
	last := len(idx.ids) - 1
	idx.ids[i] = idx.ids[last]
	idx.vecs[i] = idx.vecs[last]
	idx.norms[i] = idx.norms[last]
	idx.pos[idx.ids[i]] = i

	idx.ids = idx.ids[:last]
	idx.vecs = idx.vecs[:last]
	idx.norms = idx.norms[:last]
	delete(idx.pos, id)
	return true
}

// Size returns the current number of entries.
func (idx *Index) Size() int {
	return len(idx.ids)
}

type candidate struct {
	id    string
	score float64
}

// SearchKNN scans every entry, computes cosine similarity against the
// query, and returns the top k ordered by descending similarity with ties
// broken by ascending id.
func (idx *Index) SearchKNN(query []float32, k int, filter func(id string) bool) ([]driven.Hit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("bruteforce search: %w: query dim %d, want %d", domain.ErrDimensionMismatch, len(query), idx.dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("bruteforce search: %w: k=%d", domain.ErrInvalidParameter, k)
	}

	qNorm := vectormath.Norm(query)
	candidates := make([]candidate, 0, len(idx.ids))
	for i, id := range idx.ids {
		if filter != nil && !filter(id) {
			continue
		}
		sim := vectormath.CosineWithNorms(query, qNorm, idx.vecs[i], idx.norms[i])
		candidates = append(candidates, candidate{id: id, score: sim})
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].id < candidates[b].id
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]driven.Hit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.Hit{ID: candidates[i].id, Similarity: candidates[i].score}
	}
	return hits, nil
}
