package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vectordb/internal/core/domain"
)

func TestLibraryRepository_PutGetDelete(t *testing.T) {
	repo := NewLibraryRepository()
	_, err := repo.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	repo.Put(domain.Library{ID: "lib-1", Name: "docs"})
	got, err := repo.Get("lib-1")
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name)

	repo.Delete("lib-1")
	_, err = repo.Get("lib-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLibraryRepository_List(t *testing.T) {
	repo := NewLibraryRepository()
	repo.Put(domain.Library{ID: "a"})
	repo.Put(domain.Library{ID: "b"})
	assert.Len(t, repo.List(), 2)
}

func TestDocumentRepository_ListByLibrary(t *testing.T) {
	repo := NewDocumentRepository()
	repo.Put(domain.Document{ID: "d1", LibraryID: "lib-1"})
	repo.Put(domain.Document{ID: "d2", LibraryID: "lib-1"})
	repo.Put(domain.Document{ID: "d3", LibraryID: "lib-2"})

	docs := repo.ListByLibrary("lib-1")
	assert.Len(t, docs, 2)

	_, err := repo.Get("missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestChunkRepository_ListByDocument(t *testing.T) {
	repo := NewChunkRepository()
	repo.Put(domain.Chunk{ID: "c1", DocumentID: "d1"})
	repo.Put(domain.Chunk{ID: "c2", DocumentID: "d1"})
	repo.Put(domain.Chunk{ID: "c3", DocumentID: "d2"})

	chunks := repo.ListByDocument("d1")
	assert.Len(t, chunks, 2)

	repo.Delete("c1")
	assert.Len(t, repo.ListByDocument("d1"), 1)
}
