// Package sf wraps golang.org/x/sync/singleflight with a typed API.
//
// Single-flight guarantees that at most one execution of a function is in
// flight per key. When many goroutines miss the result cache for the same
// query at once, only the first one submits to the lookup actor; the rest
// block and share its result instead of queueing duplicates.
package sf

import "golang.org/x/sync/singleflight"

// Singleflight deduplicates concurrent calls that share a key.
type Singleflight[T any] struct {
	group singleflight.Group
}

// New creates a Singleflight for type T.
func New[T any]() *Singleflight[T] {
	return &Singleflight[T]{}
}

// Do executes fn for key, deduplicating concurrent calls: if a call for key
// is already in flight, Do blocks until it completes and returns its result.
func (s *Singleflight[T]) Do(key string, fn func() (*T, error)) (*T, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}
