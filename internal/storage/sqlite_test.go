package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/movieCatalog/internal/catalog"
)

func TestSQLiteGateway_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog", "movies.db")

	g, err := NewSQLiteGateway(dbPath)
	require.NoError(t, err)
	defer g.Close()

	movies, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, movies)

	want := []catalog.Movie{
		{Title: "B", Director: "D2", ReleaseYear: "2010", Genre: "Action"},
		{Title: "A", Director: "D1", ReleaseYear: "2000", Genre: "Drama"},
	}
	require.NoError(t, g.Save(ctx, want))

	got, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Save replaces rather than appends
	require.NoError(t, g.Save(ctx, want[:1]))
	got, err = g.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want[:1], got)
}

func TestSQLiteGateway_PersistsAcrossConnections(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "movies.db")
	want := []catalog.Movie{{Title: "A", Director: "D1", ReleaseYear: "2000", Genre: "Drama"}}

	g, err := NewSQLiteGateway(dbPath)
	require.NoError(t, err)
	require.NoError(t, g.Save(ctx, want))
	require.NoError(t, g.Close())

	g, err = NewSQLiteGateway(dbPath)
	require.NoError(t, err)
	defer g.Close()

	got, err := g.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
