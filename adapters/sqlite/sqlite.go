// Package sqlite loads lexicons from a SQLite file and exposes each one as a
// lookup engine.
//
// A lexicon file holds one or more lexicons (the `lexicons` table), each with
// weighted surface→analysis entries (the `entries` table). [Open] returns a
// [Stream] that yields one engine per lexicon, in id order. Every engine gets
// its own single-connection database handle: like any [engine.Engine] it
// supports only one in-flight Lookup and is meant to be owned by a lookup
// actor, not shared.
//
// The driver is modernc.org/sqlite, so no cgo is involved.
package sqlite

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/giellatekno/fstq-go/core/engine"
)

// Config configures Open.
type Config struct {
	// Path to the lexicon file. Required.
	Path string

	// Logger for diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Stream yields the engines stored in one lexicon file. It is not safe for
// concurrent use. Closing the stream does not invalidate engines already
// yielded; they own their own connections.
type Stream struct {
	path        string
	log         *slog.Logger
	db          *sql.DB // enumeration handle only
	fingerprint string
	lexicons    []lexicon
	pos         int
}

type lexicon struct {
	id   int64
	name string
}

// Open opens path as a lexicon file with default configuration.
func Open(path string) (*Stream, error) {
	return OpenConfig(Config{Path: path})
}

// OpenConfig opens a lexicon file, verifies it has the expected schema and
// enumerates its lexicons. Engines are created lazily by [Stream.Next].
func OpenConfig(cfg Config) (*Stream, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path must not be empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("sqlite: open lexicon file: %w", err)
	}

	fp, err := fingerprint(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fingerprint lexicon file: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	rows, err := db.Query(`SELECT id, name FROM lexicons ORDER BY id`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: %q is not a lexicon file: %w", cfg.Path, err)
	}
	defer rows.Close()

	var lexicons []lexicon
	for rows.Next() {
		var lex lexicon
		if err := rows.Scan(&lex.id, &lex.name); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: read lexicons: %w", err)
		}
		lexicons = append(lexicons, lex)
	}
	if err := rows.Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: read lexicons: %w", err)
	}

	cfg.Logger.Debug("lexicon file opened",
		slog.String("path", cfg.Path),
		slog.String("fingerprint", fp),
		slog.Int("lexicons", len(lexicons)),
	)

	return &Stream{
		path:        cfg.Path,
		log:         cfg.Logger,
		db:          db,
		fingerprint: fp,
		lexicons:    lexicons,
	}, nil
}

// Fingerprint returns the blake2b-256 hex digest of the lexicon file as it
// was at open time. Useful for logging which lexicon build is being served.
func (s *Stream) Fingerprint() string { return s.fingerprint }

// Next yields the next lexicon as an engine, or ok=false when the stream is
// exhausted or closed. The returned engine is independent of the stream and
// must be closed by its owner.
func (s *Stream) Next() (engine.Engine, bool) {
	if s.db == nil || s.pos >= len(s.lexicons) {
		return nil, false
	}
	lex := s.lexicons[s.pos]
	s.pos++

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		s.log.Error("sqlite: open engine database", slog.Any("error", err))
		return nil, false
	}
	// One connection: the engine is a strictly serial resource.
	db.SetMaxOpenConns(1)

	return &Engine{
		db:  db,
		lex: lex,
		log: s.log.With(slog.String("lexicon", lex.name)),
	}, true
}

// Close releases the stream's enumeration handle. Engines already yielded
// stay valid.
func (s *Stream) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

var _ engine.Stream = (*Stream)(nil)

func fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
