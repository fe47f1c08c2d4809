// Package cache provides the in-memory store for extraction results, keyed
// by file content hash plus extraction config signature.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Entry holds a cached extraction payload with its expiry and an
// observability hit counter.
type Entry struct {
	Payload   []byte
	ExpiresAt time.Time
	HitCount  int
}

type cacheItem struct {
	key   string
	entry Entry
}

// ExtractCache is a thread-safe TTL + LRU cache for extract responses.
// A single mutex guards every compound operation: expiry check, LRU touch
// and hit counting must be atomic relative to concurrent Set/Configure.
type ExtractCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	order      *list.List // front = most recently used
	items      map[string]*list.Element
	now        func() time.Time
}

// NewExtractCache creates a cache with the given TTL and capacity bounds.
func NewExtractCache(ttl time.Duration, maxEntries int) *ExtractCache {
	return &ExtractCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Configure applies runtime cache limits and prunes anything that no longer
// fits under them.
func (c *ExtractCache) Configure(ttl time.Duration, maxEntries int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ttl = ttl
	c.maxEntries = maxEntries
	c.pruneExpiredLocked(c.now())
	c.pruneCapacityLocked()
}

// Get returns the cached payload if present and not expired, marking the
// entry as recently used and incrementing its hit counter.
func (c *ExtractCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}

	item := elem.Value.(*cacheItem)
	if !item.entry.ExpiresAt.After(c.now()) {
		c.removeLocked(elem)
		return nil, false
	}

	item.entry.HitCount++
	c.order.MoveToFront(elem)
	return item.entry.Payload, true
}

// Set inserts or updates a payload and enforces TTL/capacity bounds.
func (c *ExtractCache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.pruneExpiredLocked(now)

	entry := Entry{Payload: payload, ExpiresAt: now.Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(elem)
	} else {
		c.items[key] = c.order.PushFront(&cacheItem{key: key, entry: entry})
	}
	c.pruneCapacityLocked()
}

// Len returns the number of live entries, expired ones included until the
// next Get/Set touches them.
func (c *ExtractCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Reset clears all cache state (used by tests).
func (c *ExtractCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// SetClock overrides the time source (used by tests).
func (c *ExtractCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *ExtractCache) pruneExpiredLocked(now time.Time) {
	var next *list.Element
	for elem := c.order.Front(); elem != nil; elem = next {
		next = elem.Next()
		if !elem.Value.(*cacheItem).entry.ExpiresAt.After(now) {
			c.removeLocked(elem)
		}
	}
}

func (c *ExtractCache) pruneCapacityLocked() {
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.removeLocked(oldest)
	}
}

func (c *ExtractCache) removeLocked(elem *list.Element) {
	delete(c.items, elem.Value.(*cacheItem).key)
	c.order.Remove(elem)
}
