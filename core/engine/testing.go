package engine

import (
	"sync"
	"time"
)

// Stub is a scriptable Engine for tests and examples. It records every query
// it sees, optionally sleeps per lookup, and can be gated so that a lookup
// blocks until the test releases it.
//
// Like any Engine, a Stub must only be called from one goroutine at a time;
// the call log accessors are safe from any goroutine.
type Stub struct {
	// Fn produces the results for a query. Defaults to a single result
	// "<query>#1" with weight 1.
	Fn func(query string) []Result

	// Delay is slept inside every Lookup call.
	Delay time.Duration

	// Gate, when non-nil, blocks each Lookup until the channel is closed
	// (or receives).
	Gate <-chan struct{}

	mu     sync.Mutex
	calls  []string
	closed bool
}

func (s *Stub) Lookup(query string) []Result {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()

	if s.Gate != nil {
		<-s.Gate
	}
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}

	if s.Fn != nil {
		return s.Fn(query)
	}
	return []Result{{Output: query + "#1", Weight: 1.0}}
}

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Calls returns a copy of the queries seen so far, in lookup order.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns the number of lookups performed so far.
func (s *Stub) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Closed reports whether Close has been called.
func (s *Stub) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var _ Engine = (*Stub)(nil)

// StubStream is a Stream over a fixed set of engines, for tests.
type StubStream struct {
	Engines []Engine

	pos    int
	closed bool
}

func (s *StubStream) Next() (Engine, bool) {
	if s.closed || s.pos >= len(s.Engines) {
		return nil, false
	}
	e := s.Engines[s.pos]
	s.pos++
	return e, true
}

func (s *StubStream) Close() error {
	s.closed = true
	return nil
}

var _ Stream = (*StubStream)(nil)
