// Package logging configures the process-wide slog logger. Logs go to
// stderr or a file, never to stdout, so they stay out of the menu.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Setup installs the default slog logger. An empty file logs to stderr.
// The returned closer releases the log file, if any.
func Setup(level slog.Level, file string) (io.Closer, error) {
	var sink io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = f
		closer = f
	}

	slog.SetDefault(slog.New(NewHandler(sink, level)))
	return closer, nil
}

// NewHandler returns a text handler for terminals and a JSON handler for
// everything else.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
