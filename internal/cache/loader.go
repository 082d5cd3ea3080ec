package cache

import (
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"cnoview/internal/geometry"
	"cnoview/internal/metrics"
)

// loader runs at most one computation per key at a time and keeps hit and
// miss counts. Backends supply lookup and store.
type loader struct {
	backend string
	group   singleflight.Group
	hits    atomic.Uint64
	misses  atomic.Uint64
}

func (l *loader) load(
	key Key,
	lookup func(Key) (*geometry.Geometry, bool),
	store func(Key, *geometry.Geometry),
	compute ComputeFunc,
) (*geometry.Geometry, error) {
	if g, ok := lookup(key); ok {
		l.hit()
		return g, nil
	}

	computed := false
	v, err, _ := l.group.Do(key.String(), func() (any, error) {
		// Another flight may have stored the entry after our lookup.
		if g, ok := lookup(key); ok {
			return g, nil
		}
		computed = true
		g, err := compute()
		if err != nil {
			return nil, err
		}
		store(key, g)
		return g, nil
	})

	if computed {
		l.miss()
	} else if err == nil {
		l.hit()
	}
	if err != nil {
		return nil, err
	}
	return v.(*geometry.Geometry), nil
}

func (l *loader) hit() {
	l.hits.Add(1)
	metrics.CacheHitsTotal.WithLabelValues(l.backend).Inc()
}

func (l *loader) miss() {
	l.misses.Add(1)
	metrics.CacheMissesTotal.WithLabelValues(l.backend).Inc()
}

func (l *loader) stats(entries int) Stats {
	return Stats{Hits: l.hits.Load(), Misses: l.misses.Load(), Entries: entries}
}
