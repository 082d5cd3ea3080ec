package geometry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Geometry is a multi-part polyline dataset. Parts are disjoint lines that
// are never joined; the order of parts and of the points inside a part is
// preserved by every stage that touches a Geometry.
//
// A Geometry is treated as immutable once built. Cached values are shared
// between callers, so nothing may modify Parts after New returns.
type Geometry struct {
	Parts orb.MultiLineString

	indexOnce sync.Once
	index     *rtreego.Rtree
}

// New wraps parts into a Geometry. Every part must hold at least one point.
func New(parts orb.MultiLineString) (*Geometry, error) {
	for i, p := range parts {
		if len(p) == 0 {
			return nil, fmt.Errorf("part %d is empty", i)
		}
	}
	return &Geometry{Parts: parts}, nil
}

// NumParts returns the number of parts.
func (g *Geometry) NumParts() int {
	return len(g.Parts)
}

// NumPoints returns the total number of coordinate pairs across all parts.
func (g *Geometry) NumPoints() int {
	n := 0
	for _, p := range g.Parts {
		n += len(p)
	}
	return n
}

// Bound returns the bounding box of all parts.
func (g *Geometry) Bound() orb.Bound {
	return g.Parts.Bound()
}

// Equal reports whether both geometries have the same parts with the same
// coordinates in the same order.
func (g *Geometry) Equal(o *Geometry) bool {
	if g == nil || o == nil {
		return g == o
	}
	if len(g.Parts) != len(o.Parts) {
		return false
	}
	for i := range g.Parts {
		if !g.Parts[i].Equal(o.Parts[i]) {
			return false
		}
	}
	return true
}

// PartsIntersecting returns the indexes, in part order, of the parts whose
// bounding box intersects b.
func (g *Geometry) PartsIntersecting(b orb.Bound) []int {
	g.indexOnce.Do(g.buildIndex)
	if g.index == nil {
		return nil
	}

	min := rtreego.Point{b.Min[0], b.Min[1]}
	max := rtreego.Point{b.Max[0], b.Max[1]}
	query, err := rtreego.NewRectFromPoints(min, max)
	if err != nil {
		return nil
	}

	spatials := g.index.SearchIntersect(query)
	result := make([]int, 0, len(spatials))
	for _, s := range spatials {
		result = append(result, s.(*indexedPart).part)
	}
	sort.Ints(result)
	return result
}

// indexedPart wraps a part's bounds for R-tree storage.
type indexedPart struct {
	part  int
	bound orb.Bound
}

// Bounds implements rtreego.Spatial.
func (p *indexedPart) Bounds() rtreego.Rect {
	point := rtreego.Point{p.bound.Min[0], p.bound.Min[1]}

	// R-tree rectangles need non-zero sides; horizontal or vertical parts
	// and single-point parts get a tiny thickness.
	const epsilon = 1e-9
	lengths := []float64{
		p.bound.Max[0] - p.bound.Min[0],
		p.bound.Max[1] - p.bound.Min[1],
	}
	for i := range lengths {
		if lengths[i] < epsilon {
			lengths[i] = epsilon
		}
	}

	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

func (g *Geometry) buildIndex() {
	objs := make([]rtreego.Spatial, 0, len(g.Parts))
	for i, part := range g.Parts {
		b, ok := finiteBound(part)
		if !ok {
			continue
		}
		objs = append(objs, &indexedPart{part: i, bound: b})
	}
	g.index = rtreego.NewTree(2, 25, 50, objs...)
}

// finiteBound computes the bound of the finite points of ls. Projected
// parts may carry infinite coordinates for points outside a projection's
// domain; those points cannot be drawn and are ignored for indexing.
func finiteBound(ls orb.LineString) (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, p := range ls {
		if !IsFinite(p) {
			continue
		}
		if !found {
			b = orb.Bound{Min: p, Max: p}
			found = true
			continue
		}
		b = b.Extend(p)
	}
	return b, found
}
