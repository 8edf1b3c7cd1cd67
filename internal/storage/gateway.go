// Package storage persists the movie catalog. It provides a JSON file
// gateway (the default), a SQLite gateway, an asynchronous Saver and a
// Watcher that reports edits made to the catalog file by other processes.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/marco/movieCatalog/internal/catalog"
)

// DefaultFileName is the catalog file used when no path is configured.
const DefaultFileName = "movieCatalog.json"

// ErrNotFound is returned by Load when the catalog file does not exist.
var ErrNotFound = errors.New("catalog file not found")

// Gateway loads and saves the complete catalog. Save always overwrites
// everything previously stored.
type Gateway interface {
	Load(ctx context.Context) ([]catalog.Movie, error)
	Save(ctx context.Context, movies []catalog.Movie) error
}

// Encode renders movies as a JSON array indented with two spaces, without a
// trailing newline and without HTML escaping. U+2028 and U+2029 are written
// raw, as JavaScript's JSON.stringify does.
func Encode(movies []catalog.Movie) ([]byte, error) {
	if movies == nil {
		movies = []catalog.Movie{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(movies); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators rewrites the \u2028 and \u2029 escapes produced by
// encoding/json into raw runes. Escaped backslashes are copied untouched so
// a literal `\\u2028` in a title stays as text.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if i+5 < len(data) && data[i+1] == 'u' && string(data[i+2:i+5]) == "202" {
			switch data[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// Decode parses catalog file content. Blank content is an empty catalog.
func Decode(data []byte) ([]catalog.Movie, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []catalog.Movie{}, nil
	}

	var movies []catalog.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if movies == nil {
		movies = []catalog.Movie{}
	}
	return movies, nil
}

// FileGateway stores the catalog as a single JSON file.
type FileGateway struct {
	path         string
	allowMissing bool

	// writeMu is held for the whole of a file write so readers of the file
	// never observe a partially written snapshot.
	writeMu sync.RWMutex

	mu    sync.Mutex
	known bool
	last  []byte // content most recently loaded or written by this process
}

// NewFileGateway creates a gateway for path. When allowMissing is set an
// absent file loads as an empty catalog instead of failing.
func NewFileGateway(path string, allowMissing bool) *FileGateway {
	if path == "" {
		path = DefaultFileName
	}
	return &FileGateway{
		path:         path,
		allowMissing: allowMissing,
	}
}

// Path returns the catalog file path.
func (g *FileGateway) Path() string {
	return g.path
}

// Load reads and decodes the catalog file.
func (g *FileGateway) Load(ctx context.Context) ([]catalog.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if g.allowMissing {
				return []catalog.Movie{}, nil
			}
			return nil, fmt.Errorf("%w: %s", ErrNotFound, g.path)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	movies, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.path, err)
	}

	g.remember(data)
	return movies, nil
}

// Save overwrites the catalog file with the encoded movies.
func (g *FileGateway) Save(ctx context.Context, movies []catalog.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(movies)
	if err != nil {
		return err
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if err := os.WriteFile(g.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}

	g.remember(data)
	return nil
}

// ChangedOnDisk reads the catalog file and reports whether it differs from
// what this gateway last loaded or wrote. It waits for an in-flight Save.
func (g *FileGateway) ChangedOnDisk() (bool, error) {
	g.writeMu.RLock()
	defer g.writeMu.RUnlock()

	data, err := os.ReadFile(g.path)
	if err != nil {
		return false, err
	}
	return !g.IsCurrent(data), nil
}

// IsCurrent reports whether data equals the content this gateway last loaded
// or wrote.
func (g *FileGateway) IsCurrent(data []byte) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.known && bytes.Equal(g.last, data)
}

func (g *FileGateway) remember(data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.known = true
	g.last = append(g.last[:0], data...)
}
