package cache

import (
	"fmt"

	"github.com/paulmach/orb"

	"cnoview/internal/cno"
	"cnoview/internal/geometry"
)

// Key identifies one located, decoded and projected overlay.
type Key struct {
	Path         string
	Format       cno.Format
	ProjectionID string
	Extent       orb.Bound
	HasExtent    bool
}

// NewKey builds a key. The extent only takes part in the key when the
// projection's output depends on it.
func NewKey(path string, format cno.Format, projectionID string, extent orb.Bound, extentDependent bool) Key {
	k := Key{Path: path, Format: format, ProjectionID: projectionID}
	if extentDependent {
		k.Extent = extent
		k.HasExtent = true
	}
	return k
}

// String encodes k unambiguously; it names the in-flight computation.
func (k Key) String() string {
	s := fmt.Sprintf("%q|%d|%q", k.Path, k.Format, k.ProjectionID)
	if k.HasExtent {
		s += fmt.Sprintf("|%g,%g,%g,%g", k.Extent.Min[0], k.Extent.Max[0], k.Extent.Min[1], k.Extent.Max[1])
	}
	return s
}

// ComputeFunc produces the geometry for a key on a miss.
type ComputeFunc func() (*geometry.Geometry, error)

// Stats reports cache usage since creation.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Cache memoizes overlay geometries. Returned geometries are shared and must
// not be modified.
type Cache interface {
	// GetOrCompute returns the stored geometry for key, or runs compute once
	// and stores its result. Failed computations are not stored.
	GetOrCompute(key Key, compute ComputeFunc) (*geometry.Geometry, error)
	Clear()
	Len() int
	Stats() Stats
}
