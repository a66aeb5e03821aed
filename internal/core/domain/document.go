package domain

import "time"

// Document belongs to exactly one library and owns a set of chunks.
// Deleting a document removes all its chunks and their index entries.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// LibraryID links to the owning Library.
	LibraryID string

	// Name is a human-readable label.
	Name string

	// Metadata contains arbitrary key-value pairs (string keys, scalar values).
	Metadata map[string]any

	// ChunkIDs is the set of chunks owned by this document.
	ChunkIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is the smallest retrievable unit: raw text plus its embedding
// vector. A chunk's vector is computed once at creation and is immutable
// thereafter; the chunk id is the stable identifier used inside the index.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the raw text content of this chunk.
	Content string

	// Embedding is the vector representation used for similarity search.
	// Length must equal the owning library's Dimension.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}
