package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/marco/movieCatalog/internal/catalog"
	"github.com/marco/movieCatalog/internal/retry"
)

// ErrSaverClosed is returned by Dispatch after Close.
var ErrSaverClosed = errors.New("saver is closed")

// ResultFunc receives the outcome of each dispatched save, in dispatch order.
// It is called from the saver goroutine.
type ResultFunc func(err error)

// SaverOptions configures retries for a Saver.
type SaverOptions struct {
	Attempts int
	Backoff  time.Duration
	Queue    int // dispatches buffered before Dispatch blocks
}

// Saver writes catalog snapshots in the background on a single goroutine, so
// snapshots reach the gateway in the order they were dispatched and the last
// mutation always wins.
type Saver struct {
	gateway  Gateway
	opts     SaverOptions
	onResult ResultFunc

	jobs    chan []catalog.Movie
	done    chan struct{}
	pending sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewSaver starts a saver for gateway. onResult may be nil.
func NewSaver(gateway Gateway, opts SaverOptions, onResult ResultFunc) *Saver {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Queue <= 0 {
		opts.Queue = 32
	}

	s := &Saver{
		gateway:  gateway,
		opts:     opts,
		onResult: onResult,
		jobs:     make(chan []catalog.Movie, opts.Queue),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Dispatch queues a snapshot for saving and returns without waiting for the
// write. The snapshot is copied.
func (s *Saver) Dispatch(movies []catalog.Movie) error {
	snapshot := make([]catalog.Movie, len(movies))
	copy(snapshot, movies)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSaverClosed
	}
	s.pending.Add(1)
	s.jobs <- snapshot
	return nil
}

// flush blocks until every dispatched snapshot has been handled.
func (s *Saver) flush() {
	s.pending.Wait()
}

// Close stops accepting snapshots and waits for queued ones to be written.
func (s *Saver) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	<-s.done
}

func (s *Saver) run() {
	defer close(s.done)

	for snapshot := range s.jobs {
		err := retry.Retry(func() error {
			return s.gateway.Save(context.Background(), snapshot)
		}, s.opts.Attempts, s.opts.Backoff)

		if err != nil {
			slog.Error("failed to save catalog", "movies", len(snapshot), "error", err)
		} else {
			slog.Debug("catalog saved", "movies", len(snapshot))
		}

		if s.onResult != nil {
			s.onResult(err)
		}
		s.pending.Done()
	}
}
