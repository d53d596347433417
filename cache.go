package main

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DatasetCache holds complete datasets keyed by source. Entries expire after
// ttl (0 keeps them for the process lifetime). Concurrent misses for the same
// key share one load, and a dataset only becomes visible once fully built.
type DatasetCache struct {
	entries *expirable.LRU[string, *Dataset]
	flights singleflight.Group
	mu      sync.Mutex
}

// NewDatasetCache creates a cache of at most size sources (0 = unbounded).
func NewDatasetCache(size int, ttl time.Duration) *DatasetCache {
	return &DatasetCache{
		entries: expirable.NewLRU[string, *Dataset](size, nil, ttl),
	}
}

// Get returns the live entry for key or runs load once for all concurrent
// callers. A caller whose ctx ends stops waiting; the shared load keeps
// running for the others, so load must not depend on any one caller's ctx.
func (c *DatasetCache) Get(ctx context.Context, key string, load func() (*Dataset, error)) (*Dataset, error) {
	if ds, ok := c.entries.Get(key); ok {
		return ds, nil
	}
	ch := c.flights.DoChan(key, func() (any, error) {
		if ds, ok := c.entries.Get(key); ok {
			return ds, nil
		}
		ds, err := load()
		if err != nil {
			return nil, err
		}
		return c.Put(key, ds), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// Put publishes ds under key unless a dataset from a later fetch is already
// there, and returns whichever entry is kept.
func (c *DatasetCache) Put(key string, ds *Dataset) *Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries.Peek(key); ok && cur.FetchedAt().After(ds.FetchedAt()) {
		return cur
	}
	c.entries.Add(key, ds)
	return ds
}

// Peek reads the live entry for key without loading it.
func (c *DatasetCache) Peek(key string) (*Dataset, bool) {
	return c.entries.Peek(key)
}
