package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"cnoview/internal/geometry"
)

// LRUCache holds at most a fixed number of geometries, evicting the least
// recently used.
type LRUCache struct {
	lru    *lru.Cache[Key, *geometry.Geometry]
	loader loader
}

// NewLRUCache creates a cache bounded to maxEntries.
func NewLRUCache(maxEntries int) (*LRUCache, error) {
	l, err := lru.New[Key, *geometry.Geometry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUCache{lru: l, loader: loader{backend: "lru"}}, nil
}

func (c *LRUCache) GetOrCompute(key Key, compute ComputeFunc) (*geometry.Geometry, error) {
	return c.loader.load(key, c.lru.Get, func(k Key, g *geometry.Geometry) { c.lru.Add(k, g) }, compute)
}

func (c *LRUCache) Clear() { c.lru.Purge() }

func (c *LRUCache) Len() int { return c.lru.Len() }

func (c *LRUCache) Stats() Stats { return c.loader.stats(c.lru.Len()) }
