package storage

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marco/movieCatalog/internal/catalog"
)

// recordingGateway records saved snapshots and fails the first failures calls.
type recordingGateway struct {
	mu       sync.Mutex
	saved    [][]catalog.Movie
	calls    int
	failures int
	err      error
	release  chan struct{}
}

func (g *recordingGateway) Load(ctx context.Context) ([]catalog.Movie, error) {
	return nil, nil
}

func (g *recordingGateway) Save(ctx context.Context, movies []catalog.Movie) error {
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.failures {
		return g.err
	}
	g.saved = append(g.saved, movies)
	return nil
}

func TestSaver_WritesSnapshotsInOrder(t *testing.T) {
	gw := &recordingGateway{}
	var results []error
	s := NewSaver(gw, SaverOptions{}, func(err error) { results = append(results, err) })

	c := catalog.New(nil)
	for _, title := range []string{"A", "B", "C"} {
		c.Add(catalog.Movie{Title: title})
		require.NoError(t, s.Dispatch(c.List()))
	}
	s.Close()

	require.Len(t, gw.saved, 3)
	assert.Len(t, gw.saved[0], 1)
	assert.Len(t, gw.saved[1], 2)
	assert.Equal(t, c.List(), gw.saved[2])
	assert.Equal(t, []error{nil, nil, nil}, results)
}

func TestSaver_DispatchDoesNotWait(t *testing.T) {
	gw := &recordingGateway{release: make(chan struct{})}
	s := NewSaver(gw, SaverOptions{}, nil)

	done := make(chan struct{})
	go func() {
		_ = s.Dispatch([]catalog.Movie{{Title: "A"}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a pending save")
	}

	close(gw.release)
	s.Close()
	assert.Len(t, gw.saved, 1)
}

func TestSaver_SnapshotIsCopied(t *testing.T) {
	gw := &recordingGateway{release: make(chan struct{})}
	s := NewSaver(gw, SaverOptions{}, nil)

	movies := []catalog.Movie{{Title: "A"}}
	require.NoError(t, s.Dispatch(movies))
	movies[0].Title = "changed"

	close(gw.release)
	s.Close()
	assert.Equal(t, "A", gw.saved[0][0].Title)
}

func TestSaver_ReportsFailure(t *testing.T) {
	gw := &recordingGateway{failures: 1, err: errors.New("disk full")}
	var results []error
	s := NewSaver(gw, SaverOptions{Attempts: 3, Backoff: time.Millisecond}, func(err error) { results = append(results, err) })

	require.NoError(t, s.Dispatch(nil))
	require.NoError(t, s.Dispatch(nil))
	s.flush()
	s.Close()

	require.Len(t, results, 2)
	assert.EqualError(t, results[0], "disk full")
	assert.NoError(t, results[1])
	assert.Equal(t, 2, gw.calls, "permanent errors are not retried")
}

func TestSaver_RetriesTransientFailure(t *testing.T) {
	gw := &recordingGateway{failures: 2, err: syscall.EBUSY}
	var results []error
	s := NewSaver(gw, SaverOptions{Attempts: 3, Backoff: time.Millisecond}, func(err error) { results = append(results, err) })

	require.NoError(t, s.Dispatch([]catalog.Movie{{Title: "A"}}))
	s.Close()

	assert.Equal(t, []error{nil}, results)
	assert.Equal(t, 3, gw.calls)
}

func TestSaver_DispatchAfterClose(t *testing.T) {
	s := NewSaver(&recordingGateway{}, SaverOptions{}, nil)
	s.Close()
	s.Close()

	assert.ErrorIs(t, s.Dispatch(nil), ErrSaverClosed)
}
