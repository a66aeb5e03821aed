package driven

// VectorIndex is the common capability set implemented by all three index
// families (brute force, HNSW, LSH). Dispatch on kind is static per
// library; every implementation must satisfy this same contract.
//
// None of these methods lock internally — callers (the library service)
// hold the owning library's write or read lock for the duration of the
// call, per the concurrency model.
type VectorIndex interface {
	// Build discards any existing contents and populates the index from
	// entries. Returns domain.ErrDimensionMismatch if any entry's vector
	// does not match the index's configured dimension.
	Build(entries []Entry) error

	// Insert adds a single entry. Returns domain.ErrDuplicate if id is
	// already present, domain.ErrDimensionMismatch if vector's length is
	// wrong.
	Insert(id string, vector []float32) error

	// Delete removes id if present. It is not an error to delete an id
	// that is not present; ok reports whether anything was removed.
	Delete(id string) (ok bool)

	// SearchKNN returns up to k (id, similarity) pairs ordered by
	// descending similarity, ties broken by ascending id. filter, if
	// non-nil, is consulted during or after candidate enumeration; only
	// ids for which filter returns true are eligible. Returns
	// domain.ErrDimensionMismatch if query's length is wrong,
	// domain.ErrInvalidParameter if k < 1.
	SearchKNN(query []float32, k int, filter func(id string) bool) ([]Hit, error)

	// Size returns the current number of entries.
	Size() int
}

// Entry is a (chunk id, vector) pair as stored by an index.
type Entry struct {
	ID     string
	Vector []float32
}

// Hit is a single search result: an entry id and its similarity to the
// query, in [-1, 1].
type Hit struct {
	ID         string
	Similarity float64
}
