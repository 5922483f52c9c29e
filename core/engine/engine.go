// Package engine defines the contracts for lookup engines and the streams
// that load them from lexicon files.
//
// An [Engine] is the non-thread-safe resource the rest of the system is built
// around: it supports exactly one in-flight Lookup call at a time, across all
// goroutines. Callers that need concurrent access wrap an Engine in a
// lookup actor (see core/lookup) instead of sharing it directly.
package engine

import (
	"errors"
	"fmt"
)

// Result is a single lookup result: the output string and its weight.
// Result order is the engine's own precedence order.
type Result struct {
	Output string  `json:"output"`
	Weight float32 `json:"weight"`
}

// Engine performs synchronous lookups against one loaded lexicon.
//
// Lookup may block for an unbounded (but typically short) time. It is NOT
// safe to call concurrently; at most one Lookup may be in flight at any
// instant. There is no error return: the underlying resource offers no error
// channel, so an engine either produces results or produces none.
//
// An Engine owns internal resources and must be released with Close once no
// longer needed.
type Engine interface {
	Lookup(query string) []Result
	Close() error
}

// Stream is a lazy, finite sequence of engines read from one lexicon file.
// It can only be restarted by reopening the file. Close releases the
// underlying file; engines already yielded stay valid until closed
// themselves.
type Stream interface {
	// Next returns the next engine, or ok=false when the stream is
	// exhausted or unreadable.
	Next() (eng Engine, ok bool)
	Close() error
}

// ErrNotExactlyOne is returned by One when the stream does not hold exactly
// one engine.
var ErrNotExactlyOne = errors.New("engine: stream does not hold exactly one engine")

// One reads the single engine from s, or fails if the stream holds zero or
// more than one. A surplus engine is closed before returning.
func One(s Stream) (Engine, error) {
	first, ok := s.Next()
	if !ok {
		return nil, fmt.Errorf("%w: stream is empty", ErrNotExactlyOne)
	}
	if extra, ok := s.Next(); ok {
		_ = extra.Close()
		_ = first.Close()
		return nil, fmt.Errorf("%w: more than one engine", ErrNotExactlyOne)
	}
	return first, nil
}
