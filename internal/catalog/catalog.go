// Package catalog holds the in-memory movie catalog. It has no knowledge of
// persistence or terminal I/O.
package catalog

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInvalidIndex is returned by Get, Update and Delete for any index
	// outside [0, Len()).
	ErrInvalidIndex = errors.New("invalid movie index")

	// ErrUnknownField is returned by Filter for fields other than genre and
	// releaseYear.
	ErrUnknownField = errors.New("unknown filter field")
)

// Catalog is an ordered sequence of movies. Identity is positional.
// A Catalog is not safe for concurrent use.
type Catalog struct {
	movies []Movie
}

// New creates a catalog holding a copy of movies in the given order.
func New(movies []Movie) *Catalog {
	c := &Catalog{movies: make([]Movie, 0, len(movies))}
	c.movies = append(c.movies, movies...)
	return c
}

// Len returns the number of movies in the catalog.
func (c *Catalog) Len() int {
	return len(c.movies)
}

// List returns a copy of every movie in current order.
func (c *Catalog) List() []Movie {
	out := make([]Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

// Get returns the movie at index.
func (c *Catalog) Get(index int) (Movie, error) {
	if !c.inBounds(index) {
		return Movie{}, ErrInvalidIndex
	}
	return c.movies[index], nil
}

// Add appends a movie to the end of the catalog.
func (c *Catalog) Add(m Movie) {
	c.movies = append(c.movies, m)
}

// Update replaces the movie at index. The caller is responsible for merging
// blank fields beforehand (see Merge).
func (c *Catalog) Update(index int, m Movie) error {
	if !c.inBounds(index) {
		return ErrInvalidIndex
	}
	c.movies[index] = m
	return nil
}

// Delete removes the movie at index; later movies shift down by one.
func (c *Catalog) Delete(index int) error {
	if !c.inBounds(index) {
		return ErrInvalidIndex
	}
	c.movies = append(c.movies[:index], c.movies[index+1:]...)
	return nil
}

// Search returns movies whose title, director or genre contains query.
// Matching is case-sensitive and an empty query matches every movie.
func (c *Catalog) Search(query string) []Movie {
	return c.selectWhere(func(m Movie) bool {
		return strings.Contains(m.Title, query) ||
			strings.Contains(m.Director, query) ||
			strings.Contains(m.Genre, query)
	})
}

// Filter returns movies whose field equals value exactly.
func (c *Catalog) Filter(field Field, value string) ([]Movie, error) {
	if _, err := (Movie{}).Value(field); err != nil {
		return nil, err
	}
	return c.selectWhere(func(m Movie) bool {
		v, _ := m.Value(field)
		return v == value
	}), nil
}

func (c *Catalog) selectWhere(match func(Movie) bool) []Movie {
	out := []Movie{}
	for _, m := range c.movies {
		if match(m) {
			out = append(out, m)
		}
	}
	return out
}

func (c *Catalog) inBounds(index int) bool {
	return index >= 0 && index < len(c.movies)
}

// ParseIndex converts a 1-based index typed by the user into a 0-based index.
// Text that is not an integer yields -1, which never passes a bounds check.
func ParseIndex(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return -1
	}
	return n - 1
}
