// Package projection transforms decoded overlays from lon/lat into the
// coordinate space of a plot.
package projection

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"cnoview/internal/geometry"
)

// Projection maps a geographic coordinate to plot coordinates.
type Projection interface {
	Forward(lon, lat float64) (x, y float64, err error)
}

// Identifier is implemented by projections that can name themselves. Two
// projections with the same ID must produce the same output for every input.
type Identifier interface {
	ID() string
}

// ExtentDependent is implemented by projections whose output depends on the
// viewport being drawn. Results for such projections are cached per extent.
type ExtentDependent interface {
	ExtentDependent() bool
}

// IdentityID is the ID of the identity projection.
const IdentityID = "identity"

type identity struct{}

func (identity) Forward(lon, lat float64) (float64, float64, error) { return lon, lat, nil }
func (identity) ID() string                                         { return IdentityID }

// Identity leaves coordinates untouched.
var Identity Projection = identity{}

// IsIdentity reports whether p leaves coordinates untouched.
func IsIdentity(p Projection) bool {
	if p == nil {
		return true
	}
	_, ok := p.(identity)
	return ok
}

// ID returns the cache identity of p. Projections without an Identifier are
// identified by value for comparable values and by address for pointers.
// Function values cannot be told apart reliably (closures share code), so
// each call yields a fresh identity and their results are never shared.
func ID(p Projection) string {
	if IsIdentity(p) {
		return IdentityID
	}
	if i, ok := p.(Identifier); ok {
		return i.ID()
	}

	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%T@%#x", p, v.Pointer())
	case reflect.Func, reflect.Slice:
		return fmt.Sprintf("%T#%s", p, uuid.NewString())
	default:
		return fmt.Sprintf("%T:%#v", p, p)
	}
}

// IsExtentDependent reports whether results of p vary with the viewport.
func IsExtentDependent(p Projection) bool {
	if e, ok := p.(ExtentDependent); ok {
		return e.ExtentDependent()
	}
	return false
}

// Func adapts a plain function into a named Projection. The name is the
// cache identity, so distinct functions need distinct names. An unnamed
// Func is identified by its address and never shares an entry with another
// Func value.
type Func struct {
	Name string
	Fn   func(lon, lat float64) (x, y float64, err error)
}

// NewFunc returns a named projection calling fn.
func NewFunc(name string, fn func(lon, lat float64) (float64, float64, error)) *Func {
	return &Func{Name: name, Fn: fn}
}

func (f *Func) Forward(lon, lat float64) (float64, float64, error) { return f.Fn(lon, lat) }

func (f *Func) ID() string {
	if f.Name == "" {
		return fmt.Sprintf("func@%p", f)
	}
	return "func:" + f.Name
}

// FromOrb wraps an orb.Projection, such as project.WGS84.ToMercator.
func FromOrb(name string, p orb.Projection) *Func {
	return NewFunc(name, func(lon, lat float64) (float64, float64, error) {
		q := p(orb.Point{lon, lat})
		return q[0], q[1], nil
	})
}

// Project applies p to every coordinate of g, keeping parts and point order.
// The identity projection returns g itself. The first failing coordinate
// aborts the transform; no partially projected geometry is returned.
func Project(g *geometry.Geometry, p Projection) (*geometry.Geometry, error) {
	if IsIdentity(p) {
		return g, nil
	}

	parts := make(orb.MultiLineString, len(g.Parts))
	for i, part := range g.Parts {
		out := make(orb.LineString, len(part))
		for j, pt := range part {
			x, y, err := p.Forward(pt[0], pt[1])
			if err != nil {
				return nil, &Error{
					Projection: ID(p),
					Part:       i,
					Point:      j,
					Lon:        pt[0],
					Lat:        pt[1],
					Err:        err,
				}
			}
			out[j] = orb.Point{x, y}
		}
		parts[i] = out
	}
	return &geometry.Geometry{Parts: parts}, nil
}

// Error reports the coordinate a projection failed on.
type Error struct {
	Projection string
	Part       int
	Point      int
	Lon, Lat   float64
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("projection %s failed at part %d point %d (lon=%g lat=%g): %v",
		e.Projection, e.Part, e.Point, e.Lon, e.Lat, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
