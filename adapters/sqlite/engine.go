package sqlite

import (
	"database/sql"
	"log/slog"

	"github.com/giellatekno/fstq-go/core/engine"
)

// Engine looks up surface forms in one lexicon of a lexicon file. Not safe
// for concurrent use; wrap it in a lookup actor to share it.
type Engine struct {
	db  *sql.DB // capped at one connection
	lex lexicon
	log *slog.Logger
}

// Name returns the lexicon name this engine serves.
func (e *Engine) Name() string { return e.lex.name }

// Lookup returns the entries for query, cheapest weight first. The engine
// contract has no error channel; a failing query is logged and yields no
// results.
func (e *Engine) Lookup(query string) []engine.Result {
	rows, err := e.db.Query(
		`SELECT analysis, weight FROM entries
		 WHERE lexicon_id = ? AND surface = ?
		 ORDER BY weight, id`,
		e.lex.id, query,
	)
	if err != nil {
		e.log.Error("lookup query failed", slog.Any("error", err))
		return nil
	}
	defer rows.Close()

	var out []engine.Result
	for rows.Next() {
		var analysis string
		var weight float64
		if err := rows.Scan(&analysis, &weight); err != nil {
			e.log.Error("lookup scan failed", slog.Any("error", err))
			return nil
		}
		out = append(out, engine.Result{Output: analysis, Weight: float32(weight)})
	}
	if err := rows.Err(); err != nil {
		e.log.Error("lookup rows failed", slog.Any("error", err))
		return nil
	}
	return out
}

func (e *Engine) Close() error {
	return e.db.Close()
}

var _ engine.Engine = (*Engine)(nil)
