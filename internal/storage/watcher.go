package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called when the catalog file was changed by someone else.
type ChangeHandler func(path string)

// Watcher monitors the catalog file for edits made outside this process.
// It never reloads; it only reports.
type Watcher struct {
	gateway       *FileGateway
	path          string
	debounceDelay time.Duration
	handler       ChangeHandler
	watcher       *fsnotify.Watcher
	stopChan      chan struct{}
	doneChan      chan struct{}

	// Debouncing state
	mu      sync.Mutex
	pending *time.Timer
}

// NewWatcher creates a watcher for the gateway's file. Events are debounced
// so partially written files are not inspected.
func NewWatcher(gateway *FileGateway, debounceDelay time.Duration, handler ChangeHandler) (*Watcher, error) {
	path, err := filepath.Abs(gateway.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		gateway:       gateway,
		path:          path,
		debounceDelay: debounceDelay,
		handler:       handler,
		watcher:       fsWatcher,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself so replacements by rename are seen too.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go w.processEvents()

	slog.Info("catalog watcher started",
		"path", w.path,
		"debounce_ms", w.debounceDelay.Milliseconds(),
	)
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	<-w.doneChan // Wait for event loop to finish

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) processEvents() {
	defer close(w.doneChan)

	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				slog.Debug("catalog file event", "event", event.Op.String())
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounceDelay, w.check)
}

func (w *Watcher) check() {
	select {
	case <-w.stopChan:
		return
	default:
	}

	changed, err := w.gateway.ChangedOnDisk()
	if err != nil {
		slog.Debug("catalog file unreadable after change", "path", w.path, "error", err)
		return
	}
	if !changed {
		return
	}

	slog.Warn("catalog file changed outside this session", "path", w.path)
	if w.handler != nil {
		w.handler(w.path)
	}
}
