package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// NewCache creates a cache instance based on the cache type
func NewCache(cacheType string, maxEntries int, log *zap.Logger) (Cache, error) {
	switch cacheType {
	case "", "memory":
		log.Info("Using memory cache")
		return NewMemoryCache(), nil
	case "lru":
		log.Info("Using lru cache", zap.Int("max_entries", maxEntries))
		c, err := NewLRUCache(maxEntries)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "disabled":
		log.Info("Cache disabled")
		return NewNoopCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s (supported: memory, lru, disabled)", cacheType)
	}
}
