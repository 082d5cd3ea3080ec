package cache

import "cnoview/internal/geometry"

// NoopCache stores nothing; every call computes.
type NoopCache struct {
	loader loader
}

func NewNoopCache() *NoopCache {
	return &NoopCache{loader: loader{backend: "disabled"}}
}

func (c *NoopCache) GetOrCompute(key Key, compute ComputeFunc) (*geometry.Geometry, error) {
	c.loader.miss()
	return compute()
}

func (c *NoopCache) Clear() {
}

func (c *NoopCache) Len() int {
	return 0
}

func (c *NoopCache) Stats() Stats {
	return c.loader.stats(0)
}
