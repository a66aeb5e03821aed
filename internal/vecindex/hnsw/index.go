// Package hnsw implements a pure-Go hierarchical navigable small world
// graph index for approximate cosine k-NN search. The algorithm follows
// the usual layered greedy-search-then-best-first-search design: each
// node is assigned a random top layer, links are added through a
// diversity-preferring heuristic selector, and search greedy-descends
// the upper layers before a best-first pass at layer 0.
package hnsw

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
	"github.com/custodia-labs/vectordb/internal/vectormath"
)

type node struct {
	id        string
	vector    []float32
	norm      float64
	topLayer  int
	neighbors [][]string // neighbors[layer] for layer in [0, topLayer]
}

// Index is a pure-Go HNSW index. Not safe for concurrent use without an
// external lock; the library service serializes access via the owning
// library's RWLock.
type Index struct {
	dim            int
	m              int
	mMax0          int
	efConstruction int
	efSearch       int
	mL             float64
	seed           int64
	rng            *rand.Rand

	nodes      map[string]*node
	entryPoint string
	entryLayer int
}

var _ driven.VectorIndex = (*Index)(nil)

// New returns an empty HNSW index for vectors of the given dimension,
// configured per params. A zero-valued params is rejected by the caller;
// use domain.DefaultHNSWParams for sensible defaults.
func New(dim int, params domain.HNSWParams) *Index {
	m := params.M
	if m < 1 {
		m = 1
	}
	// mL = 1/ln(M). ln(1) is zero, so M = 1 uses mL = 0, which keeps every
	// node on layer 0.
	mL := 0.0
	if m > 1 {
		mL = 1 / math.Log(float64(m))
	}
	return &Index{
		dim:            dim,
		m:              m,
		mMax0:          2 * m,
		efConstruction: params.EfConstruction,
		efSearch:       params.EfSearch,
		mL:             mL,
		seed:           params.Seed,
		rng:            rand.New(rand.NewSource(params.Seed)),
		nodes:          make(map[string]*node),
		entryLayer:     -1,
	}
}

// Build discards any existing contents and inserts entries in order,
// reseeding the random generator so construction is reproducible for a
// fixed seed and insertion order.
func (idx *Index) Build(entries []driven.Entry) error {
	idx.nodes = make(map[string]*node)
	idx.entryPoint = ""
	idx.entryLayer = -1
	idx.rng = rand.New(rand.NewSource(idx.seed))

	for _, e := range entries {
		if err := idx.Insert(e.ID, e.Vector); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the current number of entries.
func (idx *Index) Size() int {
	return len(idx.nodes)
}

func (idx *Index) randomLayer() int {
	u := idx.rng.Float64()
	for u <= 0 {
		u = idx.rng.Float64()
	}
	return int(math.Floor(-math.Log(u) * idx.mL))
}

// Insert adds a single entry, assigning it a random top layer and linking
// it into every layer from 0 up to that layer using the heuristic
// neighbor selector described in the index family's design.
func (idx *Index) Insert(id string, vector []float32) error {
	if len(vector) != idx.dim {
		return fmt.Errorf("hnsw insert: %w: got dim %d, want %d", domain.ErrDimensionMismatch, len(vector), idx.dim)
	}
	if _, dup := idx.nodes[id]; dup {
		return fmt.Errorf("hnsw insert: %w: %q", domain.ErrDuplicate, id)
	}

	ell := idx.randomLayer()
	n := &node{
		id:        id,
		vector:    vector,
		norm:      vectormath.Norm(vector),
		topLayer:  ell,
		neighbors: make([][]string, ell+1),
	}
	idx.nodes[id] = n

	if idx.entryPoint == "" {
		idx.entryPoint = id
		idx.entryLayer = ell
		return nil
	}

	qNorm := n.norm
	cur := idx.entryPoint
	for layer := idx.entryLayer; layer > ell; layer-- {
		cur = idx.greedyBest(vector, qNorm, cur, layer)
	}

	entryPoints := []string{cur}
	top := ell
	if idx.entryLayer < top {
		top = idx.entryLayer
	}
	for layer := top; layer >= 0; layer-- {
		candidates := idx.searchLayer(vector, qNorm, entryPoints, idx.efConstruction, layer)
		cap := idx.m
		if layer == 0 {
			cap = idx.mMax0
		}
		selected := idx.selectHeuristic(vector, qNorm, candidates, cap)

		n.neighbors[layer] = idsOf(selected)
		for _, s := range selected {
			nb := idx.nodes[s.id]
			nb.neighbors[layer] = append(nb.neighbors[layer], id)
			nbCap := idx.m
			if layer == 0 {
				nbCap = idx.mMax0
			}
			if len(nb.neighbors[layer]) > nbCap {
				nb.neighbors[layer] = idx.shrinkNeighbors(nb, layer, nbCap)
			}
		}

		if len(candidates) > 0 {
			entryPoints = idsOf(candidates)
		}
	}

	if ell > idx.entryLayer {
		idx.entryPoint = id
		idx.entryLayer = ell
	}
	return nil
}

// shrinkNeighbors re-applies the heuristic selector to n's neighbor list
// at layer, relative to n's own vector, to bring it back under cap.
func (idx *Index) shrinkNeighbors(n *node, layer, cap int) []string {
	candidates := make([]scoredNode, 0, len(n.neighbors[layer]))
	for _, id := range n.neighbors[layer] {
		other := idx.nodes[id]
		if other == nil {
			continue
		}
		sim := vectormath.CosineWithNorms(n.vector, n.norm, other.vector, other.norm)
		candidates = append(candidates, scoredNode{id: id, sim: sim})
	}
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].sim > candidates[b].sim })
	selected := idx.selectHeuristic(n.vector, n.norm, candidates, cap)
	return idsOf(selected)
}

// Delete removes id hard (not tombstoned) and strips it from the neighbor
// lists of the nodes it links to. Links are not always symmetric after
// neighbor shrinking, so another node may still list id; traversal skips
// such ids because the node no longer exists. If id was the entry point,
// an arbitrary surviving node with the highest top layer is promoted.
func (idx *Index) Delete(id string) bool {
	n, ok := idx.nodes[id]
	if !ok {
		return false
	}
	for layer := 0; layer <= n.topLayer; layer++ {
		for _, nbID := range n.neighbors[layer] {
			nb := idx.nodes[nbID]
			if nb == nil {
				continue
			}
			nb.neighbors[layer] = removeID(nb.neighbors[layer], id)
		}
	}
	delete(idx.nodes, id)

	if idx.entryPoint == id {
		idx.entryPoint = ""
		idx.entryLayer = -1
		for nid, other := range idx.nodes {
			if other.topLayer > idx.entryLayer {
				idx.entryLayer = other.topLayer
				idx.entryPoint = nid
			}
		}
	}
	return true
}

// SearchKNN greedy-descends from the entry point through the upper
// layers, then runs a best-first search at layer 0 with a dynamic
// candidate list of size max(efSearch, k), and returns the top k results.
func (idx *Index) SearchKNN(query []float32, k int, filter func(id string) bool) ([]driven.Hit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("hnsw search: %w: query dim %d, want %d", domain.ErrDimensionMismatch, len(query), idx.dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("hnsw search: %w: k=%d", domain.ErrInvalidParameter, k)
	}
	if idx.entryPoint == "" {
		return nil, nil
	}

	qNorm := vectormath.Norm(query)
	cur := idx.entryPoint
	for layer := idx.entryLayer; layer > 0; layer-- {
		cur = idx.greedyBest(query, qNorm, cur, layer)
	}

	ef := idx.efSearch
	if k > ef {
		ef = k
	}
	candidates := idx.searchLayer(query, qNorm, []string{cur}, ef, 0)

	hits := make([]driven.Hit, 0, k)
	for _, c := range candidates {
		if filter != nil && !filter(c.id) {
			continue
		}
		hits = append(hits, driven.Hit{ID: c.id, Similarity: c.sim})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// greedyBest repeatedly moves to the neighbor at layer with the highest
// similarity to query, starting from start, until no neighbor improves on
// the current best. This is the single-best-candidate descent used when
// moving from one layer down to the next during both insert and search.
func (idx *Index) greedyBest(query []float32, qNorm float64, start string, layer int) string {
	best := start
	bestSim := idx.similarityTo(query, qNorm, start)

	for {
		n := idx.nodes[best]
		if n == nil || layer > n.topLayer {
			return best
		}
		improved := false
		for _, nbID := range n.neighbors[layer] {
			if idx.nodes[nbID] == nil {
				continue
			}
			sim := idx.similarityTo(query, qNorm, nbID)
			if sim > bestSim {
				bestSim = sim
				best = nbID
				improved = true
			}
		}
		if !improved {
			return best
		}
	}
}

func (idx *Index) similarityTo(query []float32, qNorm float64, id string) float64 {
	n := idx.nodes[id]
	if n == nil {
		return -1
	}
	return vectormath.CosineWithNorms(query, qNorm, n.vector, n.norm)
}

type scoredNode struct {
	id  string
	sim float64
}

// searchLayer runs the classic best-first search bounded by ef at the
// given layer, seeded from entryPoints, and returns up to ef results
// sorted descending by similarity (ties broken by ascending id).
func (idx *Index) searchLayer(query []float32, qNorm float64, entryPoints []string, ef, layer int) []scoredNode {
	visited := make(map[string]bool, ef*2)
	candidates := &maxSimHeap{}
	w := &minSimHeap{}

	for _, id := range entryPoints {
		n := idx.nodes[id]
		if n == nil || visited[id] {
			continue
		}
		visited[id] = true
		sim := vectormath.CosineWithNorms(query, qNorm, n.vector, n.norm)
		heap.Push(candidates, scoredNode{id: id, sim: sim})
		heap.Push(w, scoredNode{id: id, sim: sim})
	}

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(scoredNode)
		if w.Len() >= ef && c.sim < (*w)[0].sim {
			break
		}
		n := idx.nodes[c.id]
		if n == nil || layer > n.topLayer {
			continue
		}
		for _, nbID := range n.neighbors[layer] {
			if visited[nbID] {
				continue
			}
			visited[nbID] = true
			nb := idx.nodes[nbID]
			if nb == nil {
				continue
			}
			sim := vectormath.CosineWithNorms(query, qNorm, nb.vector, nb.norm)
			if w.Len() < ef {
				heap.Push(candidates, scoredNode{id: nbID, sim: sim})
				heap.Push(w, scoredNode{id: nbID, sim: sim})
			} else if sim > (*w)[0].sim {
				heap.Push(candidates, scoredNode{id: nbID, sim: sim})
				heap.Push(w, scoredNode{id: nbID, sim: sim})
				heap.Pop(w)
			}
		}
	}

	result := make([]scoredNode, len(*w))
	copy(result, *w)
	sort.Slice(result, func(a, b int) bool {
		if result[a].sim != result[b].sim {
			return result[a].sim > result[b].sim
		}
		return result[a].id < result[b].id
	})
	return result
}

// selectHeuristic picks up to cap neighbors from candidates (sorted
// descending by similarity to query), preferring diverse links: a
// candidate is accepted only if no already-selected neighbor is closer to
// it than it is to the query. If diversity leaves fewer than cap selected,
// the remaining slots are filled with the next-best unselected candidates.
func (idx *Index) selectHeuristic(query []float32, qNorm float64, candidates []scoredNode, cap int) []scoredNode {
	if len(candidates) <= cap {
		return candidates
	}

	selected := make([]scoredNode, 0, cap)
	for _, c := range candidates {
		if len(selected) >= cap {
			break
		}
		diverse := true
		for _, s := range selected {
			other := idx.nodes[s.id]
			cand := idx.nodes[c.id]
			if other == nil || cand == nil {
				continue
			}
			simToSelected := vectormath.CosineWithNorms(cand.vector, cand.norm, other.vector, other.norm)
			if simToSelected > c.sim {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, c)
		}
	}

	if len(selected) < cap {
		have := make(map[string]bool, len(selected))
		for _, s := range selected {
			have[s.id] = true
		}
		for _, c := range candidates {
			if len(selected) >= cap {
				break
			}
			if !have[c.id] {
				selected = append(selected, c)
				have[c.id] = true
			}
		}
	}
	return selected
}

func idsOf(nodes []scoredNode) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.id
	}
	return ids
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

// maxSimHeap pops the highest-similarity item first; used to explore the
// most promising candidates during best-first search.
type maxSimHeap []scoredNode

func (h maxSimHeap) Len() int            { return len(h) }
func (h maxSimHeap) Less(i, j int) bool  { return h[i].sim > h[j].sim }
func (h maxSimHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxSimHeap) Push(x any)         { *h = append(*h, x.(scoredNode)) }
func (h *maxSimHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// minSimHeap pops the lowest-similarity item first; used to track and
// evict the worst member of a bounded best-so-far set.
type minSimHeap []scoredNode

func (h minSimHeap) Len() int           { return len(h) }
func (h minSimHeap) Less(i, j int) bool { return h[i].sim < h[j].sim }
func (h minSimHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minSimHeap) Push(x any)        { *h = append(*h, x.(scoredNode)) }
func (h *minSimHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
