package services

import (
	"github.com/custodia-labs/vectordb/internal/core/domain"
)

// LibraryRepository, DocumentRepository, and ChunkRepository are plain
// id-keyed maps with no locking of their own. Concurrency control lives one
// layer up, in the per-library RWLock held by LibraryService: every call
// into a repository already happens under that lock, so adding a second
// lock here would only buy contention, not correctness.

// LibraryRepository stores libraries keyed by id.
type LibraryRepository struct {
	byID map[string]domain.Library
}

// NewLibraryRepository returns an empty repository.
func NewLibraryRepository() *LibraryRepository {
	return &LibraryRepository{byID: make(map[string]domain.Library)}
}

// Get returns the library with the given id, or domain.ErrNotFound.
func (r *LibraryRepository) Get(id string) (domain.Library, error) {
	lib, ok := r.byID[id]
	if !ok {
		return domain.Library{}, domain.ErrNotFound
	}
	return lib, nil
}

// Put inserts or overwrites the library keyed by its own id.
func (r *LibraryRepository) Put(lib domain.Library) {
	r.byID[lib.ID] = lib
}

// Delete removes the library with the given id. No-op if absent.
func (r *LibraryRepository) Delete(id string) {
	delete(r.byID, id)
}

// List returns every library, in no particular order.
func (r *LibraryRepository) List() []domain.Library {
	out := make([]domain.Library, 0, len(r.byID))
	for _, lib := range r.byID {
		out = append(out, lib)
	}
	return out
}

// DocumentRepository stores documents keyed by id.
type DocumentRepository struct {
	byID map[string]domain.Document
}

// NewDocumentRepository returns an empty repository.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{byID: make(map[string]domain.Document)}
}

// Get returns the document with the given id, or domain.ErrNotFound.
func (r *DocumentRepository) Get(id string) (domain.Document, error) {
	doc, ok := r.byID[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return doc, nil
}

// Put inserts or overwrites the document keyed by its own id.
func (r *DocumentRepository) Put(doc domain.Document) {
	r.byID[doc.ID] = doc
}

// Delete removes the document with the given id. No-op if absent.
func (r *DocumentRepository) Delete(id string) {
	delete(r.byID, id)
}

// ListByLibrary returns every document belonging to libraryID, in no
// particular order.
func (r *DocumentRepository) ListByLibrary(libraryID string) []domain.Document {
	var out []domain.Document
	for _, doc := range r.byID {
		if doc.LibraryID == libraryID {
			out = append(out, doc)
		}
	}
	return out
}

// ChunkRepository stores chunks keyed by id.
type ChunkRepository struct {
	byID map[string]domain.Chunk
}

// NewChunkRepository returns an empty repository.
func NewChunkRepository() *ChunkRepository {
	return &ChunkRepository{byID: make(map[string]domain.Chunk)}
}

// Get returns the chunk with the given id, or domain.ErrNotFound.
func (r *ChunkRepository) Get(id string) (domain.Chunk, error) {
	chunk, ok := r.byID[id]
	if !ok {
		return domain.Chunk{}, domain.ErrNotFound
	}
	return chunk, nil
}

// Put inserts or overwrites the chunk keyed by its own id.
func (r *ChunkRepository) Put(chunk domain.Chunk) {
	r.byID[chunk.ID] = chunk
}

// Delete removes the chunk with the given id. No-op if absent.
func (r *ChunkRepository) Delete(id string) {
	delete(r.byID, id)
}

// ListByDocument returns every chunk belonging to documentID, in no
// particular order.
func (r *ChunkRepository) ListByDocument(documentID string) []domain.Chunk {
	var out []domain.Chunk
	for _, chunk := range r.byID {
		if chunk.DocumentID == documentID {
			out = append(out, chunk)
		}
	}
	return out
}
