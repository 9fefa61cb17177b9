// Package diag records terms the ontology could not classify. The log is
// the input for vocabulary maintenance: frequently seen unknowns become
// new ontology entries.
package diag

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Recorder accepts unknown terms. Record is best effort; a failing
// diagnostic store must never fail an analysis.
type Recorder interface {
	Record(term string)
	Close() error
}

// NopRecorder discards everything. Used when diagnostics are disabled.
type NopRecorder struct{}

func (NopRecorder) Record(string) {}
func (NopRecorder) Close() error  { return nil }

// UnknownEntry is one logged term with its occurrence count.
type UnknownEntry struct {
	Term      string
	Count     int
	FirstSeen time.Time
	LastSeen  time.Time
}

// Store is an append-only SQLite log of unknown terms.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS unknown_terms (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    raw_term  TEXT NOT NULL,
    seen_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_unknown_terms_raw ON unknown_terms(raw_term);
`

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create diagnostics dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init diagnostics schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one sighting of term. Errors are swallowed.
func (s *Store) Record(term string) {
	if term == "" {
		return
	}
	_, _ = s.db.Exec(`INSERT INTO unknown_terms (raw_term) VALUES (?)`, term)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// List returns the logged terms grouped by term, most frequent first.
func (s *Store) List(limit int) ([]UnknownEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
        SELECT raw_term, COUNT(*), MIN(seen_at), MAX(seen_at)
        FROM unknown_terms
        GROUP BY raw_term
        ORDER BY COUNT(*) DESC, raw_term ASC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unknown terms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []UnknownEntry
	for rows.Next() {
		var e UnknownEntry
		if err := rows.Scan(&e.Term, &e.Count, &e.FirstSeen, &e.LastSeen); err != nil {
			return nil, fmt.Errorf("scan unknown term: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of distinct logged terms.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT raw_term) FROM unknown_terms`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unknown terms: %w", err)
	}
	return n, nil
}
