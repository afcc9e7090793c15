package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jekabolt/grbpwr-catalog/internal/entity"
)

const defaultMaxEntries = 10000

type memoryEntry struct {
	filters   []entity.Filter
	fetchedAt time.Time
}

// MemoryCache keeps registry results in process for ttl. It holds at most
// maxEntries keys; expired keys are dropped on read, on a full Set and by a
// periodic sweep.
type MemoryCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]memoryEntry
	Mutex      sync.RWMutex
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	c := &MemoryCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]memoryEntry),
		stop:       make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *MemoryCache) expired(e memoryEntry) bool {
	return c.now().Sub(e.fetchedAt) >= c.ttl
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]entity.Filter, bool) {
	c.Mutex.RLock()
	e, found := c.entries[key]
	c.Mutex.RUnlock()
	if !found {
		return nil, false
	}
	if c.expired(e) {
		c.Mutex.Lock()
		if cur, ok := c.entries[key]; ok && c.expired(cur) {
			delete(c.entries, key)
		}
		c.Mutex.Unlock()
		return nil, false
	}
	return cloneFilters(e.filters), true
}

func (c *MemoryCache) Set(_ context.Context, key string, filters []entity.Filter) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	if _, found := c.entries[key]; !found && len(c.entries) >= c.maxEntries {
		c.evictExpiredLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = memoryEntry{
		filters:   cloneFilters(filters),
		fetchedAt: c.now(),
	}
}

func (c *MemoryCache) Invalidate(_ context.Context) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	c.entries = make(map[string]memoryEntry)
}

// Len returns the number of stored keys, expired or not.
func (c *MemoryCache) Len() int {
	c.Mutex.RLock()
	defer c.Mutex.RUnlock()
	return len(c.entries)
}

// Stop ends the sweep loop.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryCache) evictExpired() {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()
	c.evictExpiredLocked()
}

func (c *MemoryCache) evictExpiredLocked() {
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache) evictOldestLocked() {
	var oldest string
	var oldestAt time.Time
	found := false
	for key, e := range c.entries {
		if !found || e.fetchedAt.Before(oldestAt) {
			oldest, oldestAt, found = key, e.fetchedAt, true
		}
	}
	if found {
		delete(c.entries, oldest)
	}
}

// cleanup periodically removes expired entries
func (c *MemoryCache) cleanup() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func cloneFilters(filters []entity.Filter) []entity.Filter {
	out := make([]entity.Filter, len(filters))
	copy(out, filters)
	return out
}
