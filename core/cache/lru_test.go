package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLRU_putGet(t *testing.T) {
	c := NewLRU(LRUOpts{Size: 4})

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = c.Get("missing")
	require.False(t, ok)

	c.Put("a", 2)
	v, ok = c.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestLRU_evictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(LRUOpts{Size: 2})

	c.Put("a", 1)
	c.Put("b", 2)

	// Touch a so b becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)

	_, ok = c.Get("b")
	require.False(t, ok)
	_, ok = c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("c")
	require.True(t, ok)
}

func TestLRU_ttlExpiry(t *testing.T) {
	c := NewLRU(LRUOpts{Size: 4})

	c.Put("a", 1, WithTTL(10*time.Millisecond))
	_, ok := c.Get("a")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestLRU_delete(t *testing.T) {
	c := NewLRU(LRUOpts{Size: 4})

	c.Put("a", 1)
	c.Delete("a")
	_, ok := c.Get("a")
	require.False(t, ok)

	// Deleting an absent key is a no-op.
	c.Delete("a")
}

func TestLRU_concurrentAccess(t *testing.T) {
	c := NewLRU(LRUOpts{Size: 128})

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			for range 100 {
				c.Put(key, i)
				v, ok := c.Get(key)
				if ok && v != i {
					t.Errorf("key %s: got %v, want %d", key, v, i)
				}
			}
		}()
	}
	wg.Wait()
}

func TestTypedCache(t *testing.T) {
	c := NewTyped[[]string](NewLRU(LRUOpts{Size: 4}))

	c.Put("a", []string{"x", "y"})
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, []string{"x", "y"}, v)

	_, ok = c.Get("missing")
	require.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	require.False(t, ok)
}
