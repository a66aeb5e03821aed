// Package sqlitesnapshot persists the full library/document/chunk state as
// a compact binary snapshot backed by SQLite, enriched from the sqlite-vec
// example's schema and little-endian float32 BLOB encoding idiom, adapted
// from its single flat docs table to this repository's
// library/document/chunk tables.
package sqlitesnapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
)

// Store is a SQLite-backed SnapshotStore.
type Store struct {
	db *sql.DB
}

var _ driven.SnapshotStore = (*Store)(nil)

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitesnapshot: open %s: %w", path, err)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitesnapshot: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// indexParams is the JSON shape persisted in libraries.params, holding
// whichever of HNSW/LSH params the library's kind uses.
type indexParams struct {
	HNSW *domain.HNSWParams `json:"hnsw,omitempty"`
	LSH  *domain.LSHParams  `json:"lsh,omitempty"`
}

const timeLayout = time.RFC3339Nano

// Save replaces the database's entire contents with snapshot, inside a
// single transaction so a reader never observes a partial replacement.
func (s *Store) Save(snapshot driven.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlitesnapshot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"chunks", "documents", "libraries"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("sqlitesnapshot: clear %s: %w", table, err)
		}
	}

	libStmt, err := tx.Prepare(`INSERT INTO libraries(id, name, description, dimension, kind, params, is_indexed, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitesnapshot: prepare libraries insert: %w", err)
	}
	defer libStmt.Close()

	for _, lib := range snapshot.Libraries {
		params := indexParams{HNSW: lib.HNSW, LSH: lib.LSH}
		paramsJSON, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("sqlitesnapshot: marshal params for library %s: %w", lib.ID, err)
		}
		if _, err := libStmt.Exec(lib.ID, lib.Name, lib.Description, lib.Dimension, string(lib.Kind), string(paramsJSON), lib.IsIndexed, lib.CreatedAt.Format(timeLayout), lib.UpdatedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("sqlitesnapshot: insert library %s: %w", lib.ID, err)
		}
	}

	docStmt, err := tx.Prepare(`INSERT INTO documents(id, library_id, name, metadata, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitesnapshot: prepare documents insert: %w", err)
	}
	defer docStmt.Close()

	for _, doc := range snapshot.Documents {
		metaJSON, err := encodeMetadata(doc.Metadata)
		if err != nil {
			return err
		}
		if _, err := docStmt.Exec(doc.ID, doc.LibraryID, doc.Name, metaJSON, doc.CreatedAt.Format(timeLayout), doc.UpdatedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("sqlitesnapshot: insert document %s: %w", doc.ID, err)
		}
	}

	chunkStmt, err := tx.Prepare(`INSERT INTO chunks(id, document_id, content, metadata, embedding, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlitesnapshot: prepare chunks insert: %w", err)
	}
	defer chunkStmt.Close()

	for _, chunk := range snapshot.Chunks {
		metaJSON, err := encodeMetadata(chunk.Metadata)
		if err != nil {
			return err
		}
		blob := encodeEmbedding(chunk.Embedding)
		if _, err := chunkStmt.Exec(chunk.ID, chunk.DocumentID, chunk.Content, metaJSON, blob, chunk.CreatedAt.Format(timeLayout), chunk.UpdatedAt.Format(timeLayout)); err != nil {
			return fmt.Errorf("sqlitesnapshot: insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitesnapshot: commit: %w", err)
	}
	return nil
}

// Load reads back every library, document, and chunk. Returns
// domain.ErrNotFound if the libraries table is empty.
func (s *Store) Load() (driven.Snapshot, error) {
	var snapshot driven.Snapshot

	libRows, err := s.db.Query(`SELECT id, name, description, dimension, kind, params, is_indexed, created_at, updated_at FROM libraries`)
	if err != nil {
		return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: query libraries: %w", err)
	}
	defer libRows.Close()

	for libRows.Next() {
		var (
			lib        domain.Library
			kind       string
			paramsJSON string
			createdAt  string
			updatedAt  string
		)
		if err := libRows.Scan(&lib.ID, &lib.Name, &lib.Description, &lib.Dimension, &kind, &paramsJSON, &lib.IsIndexed, &createdAt, &updatedAt); err != nil {
			return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: scan library: %w", err)
		}
		lib.Kind = domain.IndexKind(kind)
		if lib.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: parse created_at for %s: %w", lib.ID, err)
		}
		if lib.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: parse updated_at for %s: %w", lib.ID, err)
		}

		var params indexParams
		if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
			return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: unmarshal params for %s: %w", lib.ID, err)
		}
		lib.HNSW, lib.LSH = params.HNSW, params.LSH

		snapshot.Libraries = append(snapshot.Libraries, lib)
	}
	if err := libRows.Err(); err != nil {
		return driven.Snapshot{}, err
	}
	if len(snapshot.Libraries) == 0 {
		return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: %w: no snapshot found", domain.ErrNotFound)
	}

	docRows, err := s.db.Query(`SELECT id, library_id, name, metadata, created_at, updated_at FROM documents`)
	if err != nil {
		return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: query documents: %w", err)
	}
	defer docRows.Close()

	docChunkIDs := make(map[string][]string)
	libDocIDs := make(map[string][]string)
	for docRows.Next() {
		var (
			doc         domain.Document
			metaJSON    string
			createdAt   string
			updatedAt   string
		)
		if err := docRows.Scan(&doc.ID, &doc.LibraryID, &doc.Name, &metaJSON, &createdAt, &updatedAt); err != nil {
			return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: scan document: %w", err)
		}
		if doc.Metadata, err = decodeMetadata(metaJSON); err != nil {
			return driven.Snapshot{}, err
		}
		if doc.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return driven.Snapshot{}, err
		}
		if doc.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return driven.Snapshot{}, err
		}
		snapshot.Documents = append(snapshot.Documents, doc)
		libDocIDs[doc.LibraryID] = append(libDocIDs[doc.LibraryID], doc.ID)
	}
	if err := docRows.Err(); err != nil {
		return driven.Snapshot{}, err
	}

	chunkRows, err := s.db.Query(`SELECT id, document_id, content, metadata, embedding, created_at, updated_at FROM chunks`)
	if err != nil {
		return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: query chunks: %w", err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var (
			chunk     domain.Chunk
			metaJSON  string
			blob      []byte
			createdAt string
			updatedAt string
		)
		if err := chunkRows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &metaJSON, &blob, &createdAt, &updatedAt); err != nil {
			return driven.Snapshot{}, fmt.Errorf("sqlitesnapshot: scan chunk: %w", err)
		}
		if chunk.Metadata, err = decodeMetadata(metaJSON); err != nil {
			return driven.Snapshot{}, err
		}
		if chunk.Embedding, err = decodeEmbedding(blob); err != nil {
			return driven.Snapshot{}, err
		}
		if chunk.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return driven.Snapshot{}, err
		}
		if chunk.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return driven.Snapshot{}, err
		}
		snapshot.Chunks = append(snapshot.Chunks, chunk)
		docChunkIDs[chunk.DocumentID] = append(docChunkIDs[chunk.DocumentID], chunk.ID)
	}
	if err := chunkRows.Err(); err != nil {
		return driven.Snapshot{}, err
	}

	for i := range snapshot.Documents {
		snapshot.Documents[i].ChunkIDs = docChunkIDs[snapshot.Documents[i].ID]
	}
	for i := range snapshot.Libraries {
		snapshot.Libraries[i].DocumentIDs = libDocIDs[snapshot.Libraries[i].ID]
	}

	return snapshot, nil
}
