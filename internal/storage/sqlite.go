package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marco/movieCatalog/internal/catalog"

	_ "modernc.org/sqlite"
)

// SQLiteGateway stores the catalog as rows ordered by position.
type SQLiteGateway struct {
	db *sql.DB
}

// NewSQLiteGateway opens (or creates) the catalog database at dbPath.
// The database file and table are auto-created if they don't exist.
func NewSQLiteGateway(dbPath string) (*SQLiteGateway, error) {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS movies (
			position INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			director TEXT NOT NULL,
			release_year TEXT NOT NULL,
			genre TEXT NOT NULL
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create movies table: %w", err)
	}

	return &SQLiteGateway{db: db}, nil
}

// Load reads every movie in position order.
func (g *SQLiteGateway) Load(ctx context.Context) ([]catalog.Movie, error) {
	rows, err := g.db.QueryContext(ctx,
		"SELECT title, director, release_year, genre FROM movies ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := []catalog.Movie{}
	for rows.Next() {
		var m catalog.Movie
		if err := rows.Scan(&m.Title, &m.Director, &m.ReleaseYear, &m.Genre); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read movies: %w", err)
	}

	return movies, nil
}

// Save replaces all stored rows with movies in a single transaction.
func (g *SQLiteGateway) Save(ctx context.Context, movies []catalog.Movie) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM movies"); err != nil {
		return fmt.Errorf("failed to clear movies: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO movies (position, title, director, release_year, genre)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range movies {
		if _, err := stmt.ExecContext(ctx, i, m.Title, m.Director, m.ReleaseYear, m.Genre); err != nil {
			return fmt.Errorf("failed to insert movie %q: %w", m.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (g *SQLiteGateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}
