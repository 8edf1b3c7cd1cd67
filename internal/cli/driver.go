// Package cli runs the interactive catalog menu.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/marco/movieCatalog/internal/catalog"
)

const separator = "================================================"

type state int

const (
	stateMenu state = iota
	stateAdd
	stateUpdate
	stateDelete
	stateSearch
	stateFilter
	stateExit
)

func (s state) String() string {
	switch s {
	case stateMenu:
		return "menu"
	case stateAdd:
		return "add"
	case stateUpdate:
		return "update"
	case stateDelete:
		return "delete"
	case stateSearch:
		return "search"
	case stateFilter:
		return "filter"
	case stateExit:
		return "exit"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Persister accepts a catalog snapshot for saving without waiting for the
// write to finish. *storage.Saver satisfies it.
type Persister interface {
	Dispatch(movies []catalog.Movie) error
}

// Driver reads menu choices and field values one line at a time and applies
// them to the catalog. Every mutation is followed by a Dispatch of the full
// catalog.
type Driver struct {
	catalog *catalog.Catalog
	saver   Persister
	in      *bufio.Reader
	out     *Output
}

// New creates a driver reading from in and writing to out.
func New(c *catalog.Catalog, saver Persister, in io.Reader, out *Output) *Driver {
	return &Driver{
		catalog: c,
		saver:   saver,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// Run loops until the user exits or input ends. Closing input is treated as
// an exit choice.
func (d *Driver) Run(ctx context.Context) error {
	st := stateMenu

	for st != stateExit {
		if err := ctx.Err(); err != nil {
			return err
		}

		var next state
		var err error

		switch st {
		case stateMenu:
			next, err = d.menu()
		case stateAdd:
			next, err = d.addFlow()
		case stateUpdate:
			next, err = d.updateFlow()
		case stateDelete:
			next, err = d.deleteFlow()
		case stateSearch:
			next, err = d.searchFlow()
		case stateFilter:
			next, err = d.filterFlow()
		default:
			return fmt.Errorf("unexpected state %s", st)
		}

		if errors.Is(err, io.EOF) {
			slog.Debug("input closed", "state", st.String())
			return nil
		}
		if err != nil {
			return err
		}
		st = next
	}

	slog.Debug("exit requested")
	return nil
}

func (d *Driver) menu() (state, error) {
	d.out.Println(separator)
	d.out.Println("\n===== Movie Catalog CLI =====")
	d.out.Println("1. Display Movie Catalog")
	d.out.Println("2. Add New Movie")
	d.out.Println("3. Update Movie Details")
	d.out.Println("4. Delete Movie")
	d.out.Println("5. Search Movies")
	d.out.Println("6. Filter Movies")
	d.out.Println("0. Exit")
	d.out.Println(separator)

	choice, err := d.prompt("Enter your choice: ")
	if err != nil {
		return stateExit, err
	}

	switch strings.TrimSpace(choice) {
	case "1":
		d.listAll()
		return stateMenu, nil
	case "2":
		return stateAdd, nil
	case "3":
		return stateUpdate, nil
	case "4":
		return stateDelete, nil
	case "5":
		return stateSearch, nil
	case "6":
		return stateFilter, nil
	case "0":
		return stateExit, nil
	default:
		d.out.Println("Invalid choice.")
		return stateMenu, nil
	}
}

func (d *Driver) addFlow() (state, error) {
	fields, err := d.promptAll(
		"Enter movie title: ",
		"Enter director: ",
		"Enter release year: ",
		"Enter genre: ",
	)
	if err != nil {
		return stateExit, err
	}

	m := catalog.Movie{
		Title:       fields[0],
		Director:    fields[1],
		ReleaseYear: fields[2],
		Genre:       fields[3],
	}
	d.catalog.Add(m)
	d.out.Println("Movie added to catalog.")
	slog.Info("movie added", "title", m.Title, "count", d.catalog.Len())

	d.persist()
	return stateMenu, nil
}

func (d *Driver) updateFlow() (state, error) {
	d.listAll()

	input, err := d.prompt("Enter movie index to update: ")
	if err != nil {
		return stateExit, err
	}

	index := catalog.ParseIndex(input)
	current, err := d.catalog.Get(index)
	if err != nil {
		d.out.Println("Invalid movie index.")
		return stateMenu, nil
	}

	fields, err := d.promptAll(
		"Enter updated title (leave blank to skip): ",
		"Enter updated director (leave blank to skip): ",
		"Enter updated release year (leave blank to skip): ",
		"Enter updated genre (leave blank to skip): ",
	)
	if err != nil {
		return stateExit, err
	}

	merged := catalog.Merge(current, catalog.Movie{
		Title:       fields[0],
		Director:    fields[1],
		ReleaseYear: fields[2],
		Genre:       fields[3],
	})
	if err := d.catalog.Update(index, merged); err != nil {
		d.out.Println("Invalid movie index.")
	} else {
		d.out.Println("Movie details updated.")
		slog.Info("movie updated", "index", index, "title", merged.Title)
	}

	d.persist()
	return stateMenu, nil
}

func (d *Driver) deleteFlow() (state, error) {
	d.listAll()

	input, err := d.prompt("Enter movie index to delete: ")
	if err != nil {
		return stateExit, err
	}

	index := catalog.ParseIndex(input)
	if err := d.catalog.Delete(index); err != nil {
		d.out.Println("Invalid movie index.")
	} else {
		d.out.Println("Movie deleted from catalog.")
		slog.Info("movie deleted", "index", index, "count", d.catalog.Len())
	}

	d.persist()
	return stateMenu, nil
}

func (d *Driver) searchFlow() (state, error) {
	query, err := d.prompt("Enter search criteria: ")
	if err != nil {
		return stateExit, err
	}

	d.out.PrintMovies(fmt.Sprintf("Search Results for \"%s\":", query), d.catalog.Search(query))
	return stateMenu, nil
}

func (d *Driver) filterFlow() (state, error) {
	d.out.Println("\nFilter Options:")
	d.out.Println("1. Filter by Genre")
	d.out.Println("2. Filter by Release Year")

	choice, err := d.prompt("Enter filter criteria: ")
	if err != nil {
		return stateExit, err
	}

	var field catalog.Field
	var label string
	switch strings.TrimSpace(choice) {
	case "1":
		field, label = catalog.FieldGenre, "Enter genre: "
	case "2":
		field, label = catalog.FieldReleaseYear, "Enter release year: "
	default:
		d.out.Println("Invalid filter criteria.")
		return stateMenu, nil
	}

	value, err := d.prompt(label)
	if err != nil {
		return stateExit, err
	}

	movies, err := d.catalog.Filter(field, value)
	if err != nil {
		return stateMenu, err
	}
	d.out.PrintMovies(fmt.Sprintf("Filtered Movies - %s: %s", field, value), movies)
	return stateMenu, nil
}

func (d *Driver) listAll() {
	d.out.PrintMovies("Movie Catalog:", d.catalog.List())
}

// persist hands the full catalog to the saver; the outcome is reported
// asynchronously by the saver's result callback.
func (d *Driver) persist() {
	if err := d.saver.Dispatch(d.catalog.List()); err != nil {
		slog.Error("failed to dispatch save", "error", err)
		d.out.Printf("Error saving catalog: %v\n", err)
	}
}

// prompt writes label and reads one line. io.EOF means input is closed.
func (d *Driver) prompt(label string) (string, error) {
	d.out.Printf("%s", label)

	line, err := d.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			// a final line without a newline still counts
			if line == "" {
				return "", io.EOF
			}
			return line, nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (d *Driver) promptAll(labels ...string) ([]string, error) {
	values := make([]string, 0, len(labels))
	for _, label := range labels {
		v, err := d.prompt(label)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
