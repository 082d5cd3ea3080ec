package cache

import (
	"sync"

	"cnoview/internal/geometry"
)

// MemoryCache keeps every computed geometry until Clear. Readers of stored
// entries never wait on a running computation.
type MemoryCache struct {
	mu     sync.RWMutex
	items  map[Key]*geometry.Geometry
	loader loader
}

// NewMemoryCache creates an empty unbounded cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items:  make(map[Key]*geometry.Geometry),
		loader: loader{backend: "memory"},
	}
}

func (c *MemoryCache) GetOrCompute(key Key, compute ComputeFunc) (*geometry.Geometry, error) {
	return c.loader.load(key, c.get, c.set, compute)
}

func (c *MemoryCache) get(key Key) (*geometry.Geometry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.items[key]
	return g, ok
}

func (c *MemoryCache) set(key Key, g *geometry.Geometry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = g
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[Key]*geometry.Geometry)
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

func (c *MemoryCache) Stats() Stats {
	return c.loader.stats(c.Len())
}
