package cache

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// RistrettoCache keeps entries until they are evicted by size pressure or Clear is called.
type RistrettoCache struct {
	cache *ristretto.Cache
}

func NewRistrettoCache(maxItems int64) (*RistrettoCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache failed: %w", err)
	}
	return &RistrettoCache{cache: c}, nil
}

func (c *RistrettoCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

// Set stores value with cost 1. Writes are buffered, a Get right after Set may still miss.
func (c *RistrettoCache) Set(key string, value any) {
	c.cache.Set(key, value, 1)
}

func (c *RistrettoCache) Clear() { c.cache.Clear() }

func (c *RistrettoCache) Close() { c.cache.Close() }
