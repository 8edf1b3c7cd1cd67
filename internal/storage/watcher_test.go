package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/movieCatalog/internal/catalog"
)

func startWatcher(t *testing.T, g *FileGateway) <-chan string {
	t.Helper()
	changes := make(chan string, 8)
	w, err := NewWatcher(g, 50*time.Millisecond, func(path string) { changes <- path })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	return changes
}

func TestWatcher_ReportsExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	g := NewFileGateway(path, true)
	require.NoError(t, g.Save(context.Background(), nil))

	changes := startWatcher(t, g)
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"edited"}]`), 0644))

	select {
	case got := <-changes:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, got)
	case <-time.After(3 * time.Second):
		t.Fatal("expected external change to be reported")
	}
}

func TestWatcher_IgnoresOwnSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	g := NewFileGateway(path, true)
	require.NoError(t, g.Save(context.Background(), nil))

	changes := startWatcher(t, g)
	require.NoError(t, g.Save(context.Background(), []catalog.Movie{{Title: "A"}}))

	select {
	case got := <-changes:
		t.Fatalf("unexpected change report for own save: %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_IgnoresRapidOwnSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	g := NewFileGateway(path, true)
	require.NoError(t, g.Save(context.Background(), nil))

	changes := startWatcher(t, g)
	movies := []catalog.Movie{}
	for i := 0; i < 20; i++ {
		movies = append(movies, catalog.Movie{Title: "A", Director: "D", ReleaseYear: "2000", Genre: "Drama"})
		require.NoError(t, g.Save(context.Background(), movies))
	}

	select {
	case got := <-changes:
		t.Fatalf("unexpected change report for own saves: %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}
