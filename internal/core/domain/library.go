package domain

import "time"

// Library is the top-level container binding one index instance to a fixed
// embedding dimension. All vectors stored under a library's index must have
// exactly Dimension components; Dimension is fixed at creation.
type Library struct {
	// ID is the unique, opaque identifier. Names are not required unique;
	// the id is authoritative.
	ID string

	// Name is a human-readable label, not guaranteed unique.
	Name string

	// Description is a free-form note about the library's contents.
	Description string

	// Dimension is the embedding width every chunk in this library must match.
	Dimension int

	// Kind selects the vector index family.
	Kind IndexKind

	// HNSW holds index parameters when Kind == HNSW; nil otherwise.
	HNSW *HNSWParams

	// LSH holds index parameters when Kind == LSH; nil otherwise.
	LSH *LSHParams

	// DocumentIDs is the set of documents owned by this library.
	DocumentIDs []string

	// IsIndexed reports whether the library's index has received entries,
	// set by AddChunk's incremental insert and by RebuildIndex. It is an
	// observability flag, not a gate: Search never checks it and never
	// builds the index itself.
	IsIndexed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
