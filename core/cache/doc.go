// Package cache provides a small key-value cache with LRU eviction and
// optional per-entry TTL, used to keep hot lookup results out of the actor's
// mailbox.
//
// [LRU] serializes all operations through one goroutine, so it is safe for
// concurrent use without external locking. [NewTyped] adds a generic
// type-safe view:
//
//	lru := cache.NewLRU(cache.LRUOpts{Size: 4096})
//	results := cache.NewTyped[[]engine.Result](lru)
//	results.Put("viessu", rs)
//	if rs, ok := results.Get("viessu"); ok {
//	    // rs is []engine.Result, no assertion needed
//	}
package cache
