package timeseries

import (
	"container/list"
)

// resultCache keeps the results of the most recently used queries, keyed by
// query digest. It is not safe for concurrent use.
type resultCache struct {
	entries map[uint64]*list.Element
	lru     *list.List
	size    int
}

type cacheEntry struct {
	key     uint64
	results []Result
}

func newResultCache(size int) *resultCache {
	return &resultCache{
		entries: make(map[uint64]*list.Element),
		lru:     list.New(),
		size:    size,
	}
}

func (c *resultCache) get(key uint64) ([]Result, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(e)
	return e.Value.(*cacheEntry).results, true
}

func (c *resultCache) add(key uint64, results []Result) {
	if c.size <= 0 {
		return
	}
	if e, ok := c.entries[key]; ok {
		e.Value.(*cacheEntry).results = results
		c.lru.MoveToFront(e)
		return
	}

	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, results: results})
	for c.lru.Len() > c.size {
		e := c.lru.Back()
		c.lru.Remove(e)
		delete(c.entries, e.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) len() int { return c.lru.Len() }
