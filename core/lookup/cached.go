package lookup

import (
	"context"
	"time"

	"github.com/giellatekno/fstq-go/core/cache"
	"github.com/giellatekno/fstq-go/core/engine"
	"github.com/giellatekno/fstq-go/core/sf"
)

// CachedClient puts an LRU result cache and single-flight deduplication in
// front of a Client. Cache hits never touch the mailbox; identical queries
// submitted concurrently collapse into one actor round trip.
//
// Lexicons are immutable while loaded, so cached results never expire on
// their own; use Invalidate after swapping the underlying lexicon file.
type CachedClient struct {
	c     *Client
	cache cache.TypedCache[[]engine.Result]
	group *sf.Singleflight[Results]
}

// NewCached wraps c. A nil ca gets a default-sized LRU.
func NewCached(c *Client, ca cache.Cache) *CachedClient {
	if ca == nil {
		ca = cache.NewLRU(cache.LRUOpts{})
	}
	return &CachedClient{
		c:     c,
		cache: cache.NewTyped[[]engine.Result](ca),
		group: sf.New[Results](),
	}
}

// Lookup returns cached results when available (marked Cached, with only
// TotalDuration set), and otherwise goes through the actor. Concurrent
// misses for the same query share one submission; the shared call runs
// under the first caller's context.
func (cc *CachedClient) Lookup(ctx context.Context, query string) (*Results, error) {
	start := time.Now()

	if rs, ok := cc.cache.Get(query); ok {
		return &Results{
			Results:       rs,
			TotalDuration: time.Since(start),
			Cached:        true,
		}, nil
	}

	return cc.group.Do(query, func() (*Results, error) {
		res, err := cc.c.Lookup(ctx, query)
		if err != nil {
			return nil, err
		}
		cc.cache.Put(query, res.Results)
		return res, nil
	})
}

// Invalidate drops the cached results for query.
func (cc *CachedClient) Invalidate(query string) {
	cc.cache.Delete(query)
}

// Stop stops the underlying actor. See [Client.Stop].
func (cc *CachedClient) Stop(ctx context.Context) (engine.Engine, error) {
	return cc.c.Stop(ctx)
}
