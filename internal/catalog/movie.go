package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Movie represents a single catalog entry. All fields are stored exactly as
// entered; releaseYear is text and is never validated as a number.
type Movie struct {
	Title       string `json:"title"`
	Director    string `json:"director"`
	ReleaseYear string `json:"releaseYear"`
	Genre       string `json:"genre"`
}

// Field names a Movie attribute that can be used with Filter.
type Field string

const (
	FieldGenre       Field = "genre"
	FieldReleaseYear Field = "releaseYear"
)

// Value returns the stored text of the named field.
func (m Movie) Value(f Field) (string, error) {
	switch f {
	case FieldGenre:
		return m.Genre, nil
	case FieldReleaseYear:
		return m.ReleaseYear, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
}

// String renders the movie the way catalog listings show it.
func (m Movie) String() string {
	return fmt.Sprintf("%s (%s) - %s (%s)", m.Title, m.ReleaseYear, m.Director, m.Genre)
}

// UnmarshalJSON accepts releaseYear as either a JSON string or a bare number,
// keeping the number's literal text. Hand-edited files often carry numbers.
func (m *Movie) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       string          `json:"title"`
		Director    string          `json:"director"`
		ReleaseYear json.RawMessage `json:"releaseYear"`
		Genre       string          `json:"genre"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	year, err := decodeYear(raw.ReleaseYear)
	if err != nil {
		return fmt.Errorf("invalid releaseYear for %q: %w", raw.Title, err)
	}

	*m = Movie{
		Title:       raw.Title,
		Director:    raw.Director,
		ReleaseYear: year,
		Genre:       raw.Genre,
	}
	return nil
}

func decodeYear(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Merge applies the blank-keeps-original policy: every empty field in patch
// falls back to the value in current.
func Merge(current, patch Movie) Movie {
	merged := patch

	if merged.Title == "" {
		merged.Title = current.Title
	}
	if merged.Director == "" {
		merged.Director = current.Director
	}
	if merged.ReleaseYear == "" {
		merged.ReleaseYear = current.ReleaseYear
	}
	if merged.Genre == "" {
		merged.Genre = current.Genre
	}

	return merged
}
