package host

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of encoded values kept when no size is
// configured.
const DefaultCacheSize = 4096

// ValueCache keeps recently read or committed encoded values by key.
// Only committed state is ever cached.
type ValueCache struct {
	mu     sync.Mutex
	values *lru.Cache[string, []byte]

	hits   uint64
	misses uint64
}

// NewValueCache creates a cache holding up to size values.
func NewValueCache(size int) (*ValueCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	values, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &ValueCache{values: values}, nil
}

// Get returns the cached value for key.
func (c *ValueCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.values.Get(key)
	if ok {
		c.hits++
		return v, true
	}
	c.misses++
	return nil, false
}

// Add stores value under key.
func (c *ValueCache) Add(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values.Add(key, value)
}

// Purge drops every entry.
func (c *ValueCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values.Purge()
}

// Stats returns the hit and miss counters.
func (c *ValueCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached values.
func (c *ValueCache) Len() int {
	return c.values.Len()
}
