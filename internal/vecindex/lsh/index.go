// Package lsh implements a locality-sensitive hashing index for
// approximate cosine k-NN search using signed random hyperplane
// projections: L independent hash tables, each keyed by the sign pattern
// of a query's dot product against a fixed set of random hyperplane
// normals.
package lsh

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
	"github.com/custodia-labs/vectordb/internal/vectormath"
)

type bucketRef struct {
	table int
	key   string
}

// Index is a pure-Go LSH index. Not safe for concurrent use without an
// external lock; the library service serializes access via the owning
// library's RWLock.
type Index struct {
	dim        int
	l          int
	k          int
	probeDepth int
	seed       int64
	rng        *rand.Rand

	hyperplanes [][][]float32 // [table][bit][dim]
	buckets     []map[string][]string
	vectors     map[string][]float32
	norms       map[string]float64
	reverse     map[string][]bucketRef
}

var _ driven.VectorIndex = (*Index)(nil)

// New returns an empty LSH index for vectors of the given dimension, with
// hyperplanes drawn immediately from params' seed. Hyperplanes are fixed
// for the life of the index unless Build is called, which redraws them.
func New(dim int, params domain.LSHParams) *Index {
	idx := &Index{
		dim:        dim,
		l:          params.L,
		k:          params.K,
		probeDepth: params.ProbeDepth,
		seed:       params.Seed,
		rng:        rand.New(rand.NewSource(params.Seed)),
	}
	idx.reset()
	return idx
}

func (idx *Index) reset() {
	idx.hyperplanes = generateHyperplanes(idx.rng, idx.l, idx.k, idx.dim)
	idx.buckets = make([]map[string][]string, idx.l)
	for t := range idx.buckets {
		idx.buckets[t] = make(map[string][]string)
	}
	idx.vectors = make(map[string][]float32)
	idx.norms = make(map[string]float64)
	idx.reverse = make(map[string][]bucketRef)
}

func generateHyperplanes(rng *rand.Rand, l, k, dim int) [][][]float32 {
	tables := make([][][]float32, l)
	for t := 0; t < l; t++ {
		planes := make([][]float32, k)
		for b := 0; b < k; b++ {
			v := make([]float32, dim)
			for d := 0; d < dim; d++ {
				v[d] = float32(rng.NormFloat64())
			}
			norm := vectormath.Norm(v)
			if norm > 0 {
				for d := range v {
					v[d] = float32(float64(v[d]) / norm)
				}
			}
			planes[b] = v
		}
		tables[t] = planes
	}
	return tables
}

// Build discards any existing contents, redraws hyperplanes, and inserts
// entries in order.
func (idx *Index) Build(entries []driven.Entry) error {
	idx.rng = rand.New(rand.NewSource(idx.seed))
	idx.reset()
	for _, e := range entries {
		if err := idx.Insert(e.ID, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the current number of entries.
func (idx *Index) Size() int {
	return len(idx.vectors)
}

// signature returns the k-bit sign pattern of vector's dot product against
// table's hyperplanes, as a k-character string of '0'/'1'.
func (idx *Index) signature(table int, vector []float32) string {
	planes := idx.hyperplanes[table]
	bits := make([]byte, len(planes))
	for i, hp := range planes {
		var dot float64
		for d := range vector {
			dot += float64(vector[d]) * float64(hp[d])
		}
		if dot >= 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	return string(bits)
}

// Insert computes id's signature in every table and appends it to the
// corresponding buckets.
func (idx *Index) Insert(id string, vector []float32) error {
	if len(vector) != idx.dim {
		return fmt.Errorf("lsh insert: %w: got dim %d, want %d", domain.ErrDimensionMismatch, len(vector), idx.dim)
	}
	if _, dup := idx.vectors[id]; dup {
		return fmt.Errorf("lsh insert: %w: %q", domain.ErrDuplicate, id)
	}

	refs := make([]bucketRef, idx.l)
	for t := 0; t < idx.l; t++ {
		key := idx.signature(t, vector)
		idx.buckets[t][key] = append(idx.buckets[t][key], id)
		refs[t] = bucketRef{table: t, key: key}
	}

	idx.vectors[id] = vector
	idx.norms[id] = vectormath.Norm(vector)
	idx.reverse[id] = refs
	return nil
}

// Delete removes id from every bucket it appears in, using the reverse
// index to make this O(L) rather than a scan of every bucket.
func (idx *Index) Delete(id string) bool {
	refs, ok := idx.reverse[id]
	if !ok {
		return false
	}
	for _, ref := range refs {
		bucket := idx.buckets[ref.table][ref.key]
		bucket = removeID(bucket, id)
		if len(bucket) == 0 {
			delete(idx.buckets[ref.table], ref.key)
		} else {
			idx.buckets[ref.table][ref.key] = bucket
		}
	}
	delete(idx.reverse, id)
	delete(idx.vectors, id)
	delete(idx.norms, id)
	return true
}

type candidate struct {
	id    string
	score float64
}

// SearchKNN unions the candidate buckets from every table, optionally
// widening via multi-probe when every table's exact bucket is empty, then
// re-ranks the union by exact cosine similarity.
func (idx *Index) SearchKNN(query []float32, k int, filter func(id string) bool) ([]driven.Hit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("lsh search: %w: query dim %d, want %d", domain.ErrDimensionMismatch, len(query), idx.dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("lsh search: %w: k=%d", domain.ErrInvalidParameter, k)
	}

	candidateIDs := idx.candidates(query)
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	qNorm := vectormath.Norm(query)
	candidates := make([]candidate, 0, len(candidateIDs))
	for id := range candidateIDs {
		if filter != nil && !filter(id) {
			continue
		}
		sim := vectormath.CosineWithNorms(query, qNorm, idx.vectors[id], idx.norms[id])
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

// candidates unions the exact bucket for query from every table. If that
// union is empty and probeDepth > 0, it widens by flipping up to
// probeDepth bits of each table's signature, nearest (lowest Hamming
// distance) first, stopping as soon as any candidates are found.
func (idx *Index) candidates(query []float32) map[string]bool {
	exact := make([]string, idx.l)
	found := make(map[string]bool)
	for t := 0; t < idx.l; t++ {
		key := idx.signature(t, query)
		exact[t] = key
		for _, id := range idx.buckets[t][key] {
			found[id] = true
		}
	}
	if len(found) > 0 || idx.probeDepth == 0 {
		return found
	}

	for depth := 1; depth <= idx.probeDepth && len(found) == 0; depth++ {
		for t := 0; t < idx.l; t++ {
			for _, variant := range flipCombinations(exact[t], depth) {
				for _, id := range idx.buckets[t][variant] {
					found[id] = true
				}
			}
		}
	}
	return found
}

// flipCombinations returns every variant of key with exactly depth bits
// flipped.
func flipCombinations(key string, depth int) []string {
	var out []string
	var rec func(start int, remaining int, cur []byte)
	rec = func(start, remaining int, cur []byte) {
		if remaining == 0 {
			out = append(out, string(cur))
			return
		}
		for i := start; i < len(cur); i++ {
			flipped := cur[i]
			if flipped == '0' {
				cur[i] = '1'
			} else {
				cur[i] = '0'
			}
			rec(i+1, remaining-1, cur)
			cur[i] = flipped
		}
	}
	rec(0, depth, []byte(key))
	return out
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
