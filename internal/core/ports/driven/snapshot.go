package driven

import "github.com/custodia-labs/vectordb/internal/core/domain"

// SnapshotStore persists and restores the full set of libraries, their
// documents and chunks, and their index configuration. Index graph state is
// never persisted: when a loaded snapshot is imported, each library's index
// is rebuilt from its chunks.
type SnapshotStore interface {
	// Save writes the snapshot's libraries, with their documents and chunks
	// taken from its Documents and Chunks slices, to the store, replacing
	// any prior contents.
	Save(snapshot Snapshot) error

	// Load reads back a previously saved snapshot. Returns
	// domain.ErrNotFound if nothing has been saved yet.
	Load() (Snapshot, error)
}

// Snapshot is the full persisted state of the service.
type Snapshot struct {
	Libraries []domain.Library
	Documents []domain.Document
	Chunks    []domain.Chunk
}
