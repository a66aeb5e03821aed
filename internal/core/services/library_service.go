// Package services holds the core orchestration logic: the reader-writer
// lock, the in-memory repositories, and LibraryService, which composes them
// with a VectorIndex and an EmbeddingProvider to implement library, document,
// chunk, and search operations.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
	"github.com/custodia-labs/vectordb/internal/logger"
	"github.com/custodia-labs/vectordb/internal/vecindex/bruteforce"
	"github.com/custodia-labs/vectordb/internal/vecindex/hnsw"
	"github.com/custodia-labs/vectordb/internal/vecindex/lsh"
)

// newIndex builds the VectorIndex implementation for a library, dispatching
// statically on its configured kind.
func newIndex(lib domain.Library) (driven.VectorIndex, error) {
	switch lib.Kind {
	case domain.BruteForce:
		return bruteforce.New(lib.Dimension), nil
	case domain.HNSW:
		params := domain.DefaultHNSWParams()
		if lib.HNSW != nil {
			params = *lib.HNSW
		}
		return hnsw.New(lib.Dimension, params), nil
	case domain.LSH:
		params := domain.DefaultLSHParams()
		if lib.LSH != nil {
			params = *lib.LSH
		}
		return lsh.New(lib.Dimension, params), nil
	default:
		return nil, fmt.Errorf("new index: %w: unknown kind %q", domain.ErrInvalidParameter, lib.Kind)
	}
}

// validateIndexParams rejects index parameters that would make the chosen
// backend panic or misbehave at construction time, e.g. a negative LSH
// table/bit count reaching make([][][]float32, l) in lsh.generateHyperplanes,
// or a negative HNSW ef reaching make(map[string]bool, ef*2) in
// hnsw.searchLayer. Nil params are fine; the backend falls back to its
// defaults.
func validateIndexParams(kind domain.IndexKind, hnswParams *domain.HNSWParams, lshParams *domain.LSHParams) error {
	switch kind {
	case domain.HNSW:
		if hnswParams == nil {
			return nil
		}
		if hnswParams.M < 1 {
			return fmt.Errorf("create library: %w: hnsw.m=%d", domain.ErrInvalidParameter, hnswParams.M)
		}
		if hnswParams.EfConstruction < 1 {
			return fmt.Errorf("create library: %w: hnsw.ef_construction=%d", domain.ErrInvalidParameter, hnswParams.EfConstruction)
		}
		if hnswParams.EfSearch < 1 {
			return fmt.Errorf("create library: %w: hnsw.ef_search=%d", domain.ErrInvalidParameter, hnswParams.EfSearch)
		}
	case domain.LSH:
		if lshParams == nil {
			return nil
		}
		if lshParams.L < 0 {
			return fmt.Errorf("create library: %w: lsh.l=%d", domain.ErrInvalidParameter, lshParams.L)
		}
		if lshParams.K < 0 {
			return fmt.Errorf("create library: %w: lsh.k=%d", domain.ErrInvalidParameter, lshParams.K)
		}
		if lshParams.ProbeDepth < 0 {
			return fmt.Errorf("create library: %w: lsh.probe_depth=%d", domain.ErrInvalidParameter, lshParams.ProbeDepth)
		}
	}
	return nil
}

// libraryState bundles a library's lock with its index, so the service can
// find and guard both together on every call.
type libraryState struct {
	lock  *RWLock
	index driven.VectorIndex
}

// LibraryService orchestrates every mutating and query path over libraries,
// documents, and chunks. It holds one RWLock and one VectorIndex per
// library; all other state lives in the three repositories, which it
// composes under the owning library's lock.
type LibraryService struct {
	libraries *LibraryRepository
	documents *DocumentRepository
	chunks    *ChunkRepository
	embedder  driven.EmbeddingProvider

	// states holds per-library lock/index pairs. Access to this map itself
	// is guarded by statesMu, a short-lived lock distinct from any
	// individual library's RWLock — it only ever protects map lookups, not
	// library contents.
	states   map[string]*libraryState
	statesMu *RWLock
}

// NewLibraryService wires repositories and an embedding provider into a
// ready-to-use service.
func NewLibraryService(embedder driven.EmbeddingProvider) *LibraryService {
	return &LibraryService{
		libraries: NewLibraryRepository(),
		documents: NewDocumentRepository(),
		chunks:    NewChunkRepository(),
		embedder:  embedder,
		states:    make(map[string]*libraryState),
		statesMu:  NewRWLock(),
	}
}

func (s *LibraryService) stateFor(libraryID string) (*libraryState, error) {
	g := s.statesMu.ReadGuard()
	st, ok := s.states[libraryID]
	g.Release()
	if !ok {
		return nil, fmt.Errorf("library %q: %w", libraryID, domain.ErrNotFound)
	}
	return st, nil
}

// CreateLibrary instantiates the appropriate index and registers a new
// library. Names are not required to be unique; the generated id is
// authoritative, so this never returns ErrDuplicate on a name collision.
func (s *LibraryService) CreateLibrary(name, description string, kind domain.IndexKind, dimension int, hnswParams *domain.HNSWParams, lshParams *domain.LSHParams) (domain.Library, error) {
	if dimension < 1 {
		return domain.Library{}, fmt.Errorf("create library: %w: dimension=%d", domain.ErrInvalidParameter, dimension)
	}
	if !kind.Valid() {
		return domain.Library{}, fmt.Errorf("create library: %w: kind=%q", domain.ErrInvalidParameter, kind)
	}
	if err := validateIndexParams(kind, hnswParams, lshParams); err != nil {
		return domain.Library{}, err
	}

	now := time.Now()
	lib := domain.Library{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Dimension:   dimension,
		Kind:        kind,
		HNSW:        hnswParams,
		LSH:         lshParams,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	index, err := newIndex(lib)
	if err != nil {
		return domain.Library{}, err
	}

	g := s.statesMu.WriteGuard()
	s.states[lib.ID] = &libraryState{lock: NewRWLock(), index: index}
	g.Release()

	s.libraries.Put(lib)
	logger.Debug("created library %s (%s, kind=%s, dim=%d)", lib.ID, lib.Name, lib.Kind, lib.Dimension)
	return lib, nil
}

// GetLibrary returns the library with the given id.
func (s *LibraryService) GetLibrary(id string) (domain.Library, error) {
	return s.libraries.Get(id)
}

// ListLibraries returns every registered library.
func (s *LibraryService) ListLibraries() []domain.Library {
	return s.libraries.List()
}

// DeleteLibrary removes a library and cascades the deletion to its
// documents and chunks atomically under its write lock.
func (s *LibraryService) DeleteLibrary(id string) error {
	st, err := s.stateFor(id)
	if err != nil {
		return err
	}

	g := st.lock.WriteGuard()
	defer g.Release()

	lib, err := s.libraries.Get(id)
	if err != nil {
		return err
	}
	for _, docID := range lib.DocumentIDs {
		doc, err := s.documents.Get(docID)
		if err != nil {
			continue
		}
		for _, chunkID := range doc.ChunkIDs {
			s.chunks.Delete(chunkID)
		}
		s.documents.Delete(docID)
	}
	s.libraries.Delete(id)

	statesGuard := s.statesMu.WriteGuard()
	delete(s.states, id)
	statesGuard.Release()

	logger.Debug("deleted library %s and %d documents", id, len(lib.DocumentIDs))
	return nil
}

// CreateDocument registers a new, initially empty document under a library.
func (s *LibraryService) CreateDocument(libraryID, name string, metadata map[string]any) (domain.Document, error) {
	st, err := s.stateFor(libraryID)
	if err != nil {
		return domain.Document{}, err
	}

	g := st.lock.WriteGuard()
	defer g.Release()

	lib, err := s.libraries.Get(libraryID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("create document: %w", domain.ErrParentMissing)
	}

	now := time.Now()
	doc := domain.Document{
		ID:        uuid.NewString(),
		LibraryID: libraryID,
		Name:      name,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.documents.Put(doc)

	lib.DocumentIDs = append(lib.DocumentIDs, doc.ID)
	lib.UpdatedAt = now
	s.libraries.Put(lib)

	return doc, nil
}

// DeleteDocument removes a document and cascades to its chunks, under the
// owning library's write lock.
func (s *LibraryService) DeleteDocument(documentID string) error {
	doc, err := s.documents.Get(documentID)
	if err != nil {
		return err
	}

	st, err := s.stateFor(doc.LibraryID)
	if err != nil {
		return err
	}

	g := st.lock.WriteGuard()
	defer g.Release()

	doc, err = s.documents.Get(documentID)
	if err != nil {
		return err
	}
	for _, chunkID := range doc.ChunkIDs {
		st.index.Delete(chunkID)
		s.chunks.Delete(chunkID)
	}
	s.documents.Delete(documentID)

	lib, err := s.libraries.Get(doc.LibraryID)
	if err == nil {
		lib.DocumentIDs = removeString(lib.DocumentIDs, documentID)
		lib.UpdatedAt = time.Now()
		s.libraries.Put(lib)
	}
	return nil
}

// AddChunk embeds text via the configured provider, then stores and indexes
// the resulting chunk. The embedding call happens outside any lock so a
// slow or blocked provider never holds up readers or other writers; only
// the bookkeeping that follows is serialized under the owning library's
// write lock.
func (s *LibraryService) AddChunk(ctx context.Context, documentID, text string, metadata map[string]any) (domain.Chunk, error) {
	doc, err := s.documents.Get(documentID)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("add chunk: %w", domain.ErrParentMissing)
	}

	lib, err := s.libraries.Get(doc.LibraryID)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("add chunk: %w", domain.ErrParentMissing)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return domain.Chunk{}, err
	}
	if len(vector) != lib.Dimension {
		return domain.Chunk{}, fmt.Errorf("add chunk: %w: embedding has dim %d, library wants %d", domain.ErrDimensionMismatch, len(vector), lib.Dimension)
	}

	st, err := s.stateFor(lib.ID)
	if err != nil {
		return domain.Chunk{}, err
	}

	g := st.lock.WriteGuard()
	defer g.Release()

	doc, err = s.documents.Get(documentID)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("add chunk: %w", domain.ErrParentMissing)
	}

	now := time.Now()
	chunk := domain.Chunk{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Content:    text,
		Embedding:  vector,
		Metadata:   metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := st.index.Insert(chunk.ID, chunk.Embedding); err != nil {
		return domain.Chunk{}, fmt.Errorf("add chunk: %w", err)
	}
	s.chunks.Put(chunk)

	doc.ChunkIDs = append(doc.ChunkIDs, chunk.ID)
	doc.UpdatedAt = now
	s.documents.Put(doc)

	lib.IsIndexed = true
	lib.UpdatedAt = now
	s.libraries.Put(lib)

	return chunk, nil
}

// DeleteChunk removes a chunk from the index and then from the chunk store,
// under the owning library's write lock.
func (s *LibraryService) DeleteChunk(chunkID string) error {
	chunk, err := s.chunks.Get(chunkID)
	if err != nil {
		return err
	}

	doc, err := s.documents.Get(chunk.DocumentID)
	if err != nil {
		return fmt.Errorf("delete chunk: %w", domain.ErrInternal)
	}

	st, err := s.stateFor(doc.LibraryID)
	if err != nil {
		return err
	}

	g := st.lock.WriteGuard()
	defer g.Release()

	st.index.Delete(chunkID)
	s.chunks.Delete(chunkID)

	doc, err = s.documents.Get(chunk.DocumentID)
	if err == nil {
		doc.ChunkIDs = removeString(doc.ChunkIDs, chunkID)
		doc.UpdatedAt = time.Now()
		s.documents.Put(doc)
	}
	return nil
}

// RebuildIndex replaces a library's index from its current chunks. Used
// when index parameters change or to compact after many deletions.
func (s *LibraryService) RebuildIndex(libraryID string) error {
	st, err := s.stateFor(libraryID)
	if err != nil {
		return err
	}

	g := st.lock.WriteGuard()
	defer g.Release()

	lib, err := s.libraries.Get(libraryID)
	if err != nil {
		return err
	}

	entries := s.entriesForLibrary(lib)
	if err := st.index.Build(entries); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	lib.IsIndexed = true
	lib.UpdatedAt = time.Now()
	s.libraries.Put(lib)

	logger.Debug("rebuilt index for library %s: %d entries", libraryID, len(entries))
	return nil
}

func (s *LibraryService) entriesForLibrary(lib domain.Library) []driven.Entry {
	var entries []driven.Entry
	for _, docID := range lib.DocumentIDs {
		doc, err := s.documents.Get(docID)
		if err != nil {
			continue
		}
		for _, chunkID := range doc.ChunkIDs {
			chunk, err := s.chunks.Get(chunkID)
			if err != nil {
				continue
			}
			entries = append(entries, driven.Entry{ID: chunk.ID, Vector: chunk.Embedding})
		}
	}
	return entries
}

// ExportSnapshot collects every library, document, and chunk into a single
// driven.Snapshot suitable for a SnapshotStore. It takes each library's read
// lock in turn rather than a single global lock, so it observes a
// per-library-consistent but not whole-service-atomic view.
func (s *LibraryService) ExportSnapshot() driven.Snapshot {
	libs := s.libraries.List()
	snapshot := driven.Snapshot{Libraries: libs}

	for _, lib := range libs {
		st, err := s.stateFor(lib.ID)
		if err != nil {
			continue
		}
		g := st.lock.ReadGuard()
		for _, docID := range lib.DocumentIDs {
			doc, err := s.documents.Get(docID)
			if err != nil {
				continue
			}
			snapshot.Documents = append(snapshot.Documents, doc)
			for _, chunkID := range doc.ChunkIDs {
				chunk, err := s.chunks.Get(chunkID)
				if err != nil {
					continue
				}
				snapshot.Chunks = append(snapshot.Chunks, chunk)
			}
		}
		g.Release()
	}
	return snapshot
}

// ImportSnapshot replaces all in-memory state with the given snapshot,
// rebuilding each library's index from its chunks. Index graph state is
// never persisted, so every library's index is reconstructed by Build
// rather than replayed Insert by Insert.
func (s *LibraryService) ImportSnapshot(snapshot driven.Snapshot) error {
	s.libraries = NewLibraryRepository()
	s.documents = NewDocumentRepository()
	s.chunks = NewChunkRepository()

	statesGuard := s.statesMu.WriteGuard()
	s.states = make(map[string]*libraryState)
	statesGuard.Release()

	for _, doc := range snapshot.Documents {
		s.documents.Put(doc)
	}
	for _, chunk := range snapshot.Chunks {
		s.chunks.Put(chunk)
	}

	for _, lib := range snapshot.Libraries {
		index, err := newIndex(lib)
		if err != nil {
			return fmt.Errorf("import snapshot: library %s: %w", lib.ID, err)
		}

		statesGuard := s.statesMu.WriteGuard()
		s.states[lib.ID] = &libraryState{lock: NewRWLock(), index: index}
		statesGuard.Release()

		s.libraries.Put(lib)

		if len(lib.DocumentIDs) == 0 {
			continue
		}
		entries := s.entriesForLibrary(lib)
		if err := index.Build(entries); err != nil {
			return fmt.Errorf("import snapshot: library %s: %w", lib.ID, err)
		}
	}

	logger.Debug("imported snapshot: %d libraries, %d documents, %d chunks",
		len(snapshot.Libraries), len(snapshot.Documents), len(snapshot.Chunks))
	return nil
}

// SearchHit pairs a retrieved chunk with its similarity score.
type SearchHit struct {
	Chunk domain.Chunk
	Score float64
}

// Search embeds the query text, probes the library's index with an
// inflated candidate count when a filter is present, materializes matching
// chunks, and returns up to k ranked results. Chunks deleted between the
// index probe and materialization are silently dropped rather than causing
// an error: this is a stale-tolerant read.
func (s *LibraryService) Search(ctx context.Context, libraryID, queryText string, k int, filter domain.Filter) ([]SearchHit, error) {
	if k < 1 {
		return nil, fmt.Errorf("search: %w: k=%d", domain.ErrInvalidParameter, k)
	}

	st, err := s.stateFor(libraryID)
	if err != nil {
		return nil, err
	}

	rg := st.lock.ReadGuard()
	lib, err := s.libraries.Get(libraryID)
	rg.Release()
	if err != nil {
		return nil, err
	}

	query, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}
	if len(query) != lib.Dimension {
		return nil, fmt.Errorf("search: %w: query embedding has dim %d, library wants %d", domain.ErrDimensionMismatch, len(query), lib.Dimension)
	}

	g := st.lock.ReadGuard()
	defer g.Release()

	kPrime := effectiveK(k, lib, filter)

	var filterFn func(id string) bool
	if len(filter) > 0 {
		filterFn = func(id string) bool {
			chunk, err := s.chunks.Get(id)
			if err != nil {
				return false
			}
			return filter.Match(chunk.Metadata)
		}
	}

	hits, err := st.index.SearchKNN(query, kPrime, filterFn)
	if err != nil {
		return nil, err
	}

	results := make([]SearchHit, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.chunks.Get(hit.ID)
		if err != nil {
			// Deleted between the index probe and here: drop silently.
			continue
		}
		results = append(results, SearchHit{Chunk: chunk, Score: hit.Similarity})
		if len(results) == k {
			break
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}

// effectiveK computes k' per the inflation rule: min(k*2, 100) whenever a
// filter is present (so post-filter results still number k when possible);
// otherwise k for brute force and LSH, and max(k, ef_search) for HNSW so
// the dynamic candidate list is never smaller than requested.
func effectiveK(k int, lib domain.Library, filter domain.Filter) int {
	if len(filter) > 0 {
		kPrime := k * 2
		if kPrime > 100 {
			kPrime = 100
		}
		if kPrime < k {
			kPrime = k
		}
		return kPrime
	}
	if lib.Kind == domain.HNSW {
		efSearch := domain.DefaultHNSWParams().EfSearch
		if lib.HNSW != nil {
			efSearch = lib.HNSW.EfSearch
		}
		if efSearch > k {
			return efSearch
		}
	}
	return k
}

func removeString(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
