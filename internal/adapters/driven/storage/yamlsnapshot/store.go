// Package yamlsnapshot persists the full library/document/chunk state as a
// portable textual snapshot: one YAML file per library, keyed by library
// id, with that library's documents and chunks embedded inline.
package yamlsnapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/vectordb/internal/core/domain"
	"github.com/custodia-labs/vectordb/internal/core/ports/driven"
)

// Store persists a Snapshot as one YAML file per library under baseDir.
// Documents and chunks are embedded inline under their owning library so a
// single file fully describes that library's state.
type Store struct {
	baseDir string
}

var _ driven.SnapshotStore = (*Store)(nil)

// New returns a Store rooted at baseDir, creating it if necessary.
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("yamlsnapshot: create base dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// libraryFile is the on-disk shape for a single library's YAML file.
type libraryFile struct {
	Library   domain.Library    `yaml:"library"`
	Documents []domain.Document `yaml:"documents"`
	Chunks    []domain.Chunk    `yaml:"chunks"`
}

func (s *Store) libraryPath(id string) string {
	return filepath.Join(s.baseDir, id+".yaml")
}

// Save writes one YAML file per library, replacing the directory's prior
// contents entirely: any library file present on disk but absent from
// snapshot is removed first.
func (s *Store) Save(snapshot driven.Snapshot) error {
	existing, err := filepath.Glob(filepath.Join(s.baseDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("yamlsnapshot: list existing files: %w", err)
	}
	for _, path := range existing {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("yamlsnapshot: remove stale file %s: %w", path, err)
		}
	}

	docsByLibrary := make(map[string][]domain.Document)
	for _, doc := range snapshot.Documents {
		docsByLibrary[doc.LibraryID] = append(docsByLibrary[doc.LibraryID], doc)
	}
	chunksByDocument := make(map[string][]domain.Chunk)
	for _, chunk := range snapshot.Chunks {
		chunksByDocument[chunk.DocumentID] = append(chunksByDocument[chunk.DocumentID], chunk)
	}

	for _, lib := range snapshot.Libraries {
		docs := docsByLibrary[lib.ID]
		var chunks []domain.Chunk
		for _, doc := range docs {
			chunks = append(chunks, chunksByDocument[doc.ID]...)
		}

		file := libraryFile{Library: lib, Documents: docs, Chunks: chunks}
		data, err := yaml.Marshal(file)
		if err != nil {
			return fmt.Errorf("yamlsnapshot: marshal library %s: %w", lib.ID, err)
		}
		if err := os.WriteFile(s.libraryPath(lib.ID), data, 0600); err != nil {
			return fmt.Errorf("yamlsnapshot: write library %s: %w", lib.ID, err)
		}
	}
	return nil
}

// Load reads back every library file under baseDir. Returns
// domain.ErrNotFound if no library files exist.
func (s *Store) Load() (driven.Snapshot, error) {
	paths, err := filepath.Glob(filepath.Join(s.baseDir, "*.yaml"))
	if err != nil {
		return driven.Snapshot{}, fmt.Errorf("yamlsnapshot: list files: %w", err)
	}
	if len(paths) == 0 {
		return driven.Snapshot{}, fmt.Errorf("yamlsnapshot: %w: no snapshot found in %s", domain.ErrNotFound, s.baseDir)
	}

	var snapshot driven.Snapshot
	for _, path := range paths {
		if !strings.HasSuffix(path, ".yaml") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return driven.Snapshot{}, fmt.Errorf("yamlsnapshot: read %s: %w", path, err)
		}

		var file libraryFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return driven.Snapshot{}, fmt.Errorf("yamlsnapshot: unmarshal %s: %w", path, err)
		}

		snapshot.Libraries = append(snapshot.Libraries, file.Library)
		snapshot.Documents = append(snapshot.Documents, file.Documents...)
		snapshot.Chunks = append(snapshot.Chunks, file.Chunks...)
	}
	return snapshot, nil
}
