package remote

import (
	"container/list"
	"sync"
	"time"
)

// searchCache is a small in-process TTL+LRU cache for search responses. The
// companion runs on a handset, so the cache lives in memory rather than an
// external store.
type searchCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type searchCacheEntry struct {
	key       string
	results   []SearchResult
	expiresAt time.Time
}

func newSearchCache(ttl time.Duration, maxEntries int) *searchCache {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &searchCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *searchCache) get(key string) ([]SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*searchCacheEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.results, true
}

func (c *searchCache) set(key string, results []SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*searchCacheEntry)
		entry.results = results
		entry.expiresAt = c.now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&searchCacheEntry{
		key:       key,
		results:   results,
		expiresAt: c.now().Add(c.ttl),
	})
	c.entries[key] = elem

	for len(c.entries) > c.maxEntries {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.entries, back.Value.(*searchCacheEntry).key)
	}
}
