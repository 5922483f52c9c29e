package sqlite

import (
	"database/sql"
	"fmt"
)

// Entry is one lexicon entry to be written by a Store.
type Entry struct {
	Surface  string
	Analysis string
	Weight   float32
}

// Store writes lexicon files. It is the build-time counterpart of [Open];
// `fstq build` uses it to turn TSV word lists into lexicon databases.
type Store struct {
	db *sql.DB
}

// CreateStore opens (or creates) a lexicon database at path and ensures the
// schema exists.
func CreateStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lexicons (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			lexicon_id INTEGER NOT NULL REFERENCES lexicons(id),
			surface    TEXT NOT NULL,
			analysis   TEXT NOT NULL,
			weight     REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_lookup
			ON entries(lexicon_id, surface)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddLexicon creates a lexicon and returns its id.
func (s *Store) AddLexicon(name string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO lexicons (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("sqlite: add lexicon %q: %w", name, err)
	}
	return res.LastInsertId()
}

// AddEntries appends entries to a lexicon in one transaction.
func (s *Store) AddEntries(lexiconID int64, entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO entries (lexicon_id, surface, analysis, weight) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(lexiconID, e.Surface, e.Analysis, e.Weight); err != nil {
			return fmt.Errorf("sqlite: insert entry %q: %w", e.Surface, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
