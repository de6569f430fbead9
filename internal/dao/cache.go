package dao

import (
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL is the default time-to-live for cached pages.
const DefaultCacheTTL = 30 * time.Second

type cacheEntry struct {
	objects   []Object
	timestamp time.Time
}

// ResourceCache keeps listed pages for a while so scrolling back and forth
// does not hit the remote API again.
type ResourceCache struct {
	data map[string]cacheEntry
	ttl  time.Duration
	now  func() time.Time
	mx   sync.RWMutex
}

// NewResourceCache creates a new ResourceCache with the specified TTL.
func NewResourceCache(ttl time.Duration) *ResourceCache {
	return &ResourceCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the cached page for key, if still fresh. A stale page is
// dropped.
func (c *ResourceCache) Get(key string) ([]Object, bool) {
	c.mx.Lock()
	defer c.mx.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if c.expired(entry) {
		delete(c.data, key)
		return nil, false
	}

	return entry.objects, true
}

// Set stores a page under key and sweeps stale pages.
func (c *ResourceCache) Set(key string, objects []Object) {
	c.mx.Lock()
	defer c.mx.Unlock()

	for k, e := range c.data {
		if c.expired(e) {
			delete(c.data, k)
		}
	}
	c.data[key] = cacheEntry{
		objects:   objects,
		timestamp: c.now(),
	}
}

// Delete removes the page stored under key.
func (c *ResourceCache) Delete(key string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	delete(c.data, key)
}

// InvalidatePrefix removes all cache entries whose keys start with the given prefix.
func (c *ResourceCache) InvalidatePrefix(prefix string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
}

func (c *ResourceCache) expired(e cacheEntry) bool {
	return c.now().Sub(e.timestamp) > c.ttl
}
