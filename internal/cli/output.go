package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/marco/movieCatalog/internal/catalog"
)

// Output serializes writes to the terminal. Background save reports and the
// menu loop share one Output so their lines never interleave.
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

// NewOutput wraps w.
func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// Printf writes formatted text.
func (o *Output) Printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, format, args...)
}

// Println writes a line.
func (o *Output) Println(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, line)
}

// PrintMovies writes header followed by one numbered line per movie.
func (o *Output) PrintMovies(header string, movies []catalog.Movie) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.w, header)
	for i, m := range movies {
		fmt.Fprintf(o.w, "%d. %s\n", i+1, m)
	}
}

// SaveReporter returns a callback that prints the outcome of a background save.
func SaveReporter(o *Output) func(err error) {
	return func(err error) {
		if err != nil {
			o.Printf("Error saving catalog: %v\n", err)
			return
		}
		o.Println("Catalog saved to file.")
	}
}
