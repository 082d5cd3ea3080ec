package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// IsFinite reports whether both coordinates of p are finite numbers.
func IsFinite(p orb.Point) bool {
	return !math.IsInf(p[0], 0) && !math.IsNaN(p[0]) &&
		!math.IsInf(p[1], 0) && !math.IsNaN(p[1])
}

// SplitFinite breaks ls at every non-finite point and returns the remaining
// runs of finite points in order. Runs shorter than two points are dropped
// since they cannot be drawn as a line.
func SplitFinite(ls orb.LineString) orb.MultiLineString {
	var out orb.MultiLineString
	start := -1
	for i, p := range ls {
		if IsFinite(p) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= 2 {
			out = append(out, ls[start:i])
		}
		start = -1
	}
	if start >= 0 && len(ls)-start >= 2 {
		out = append(out, ls[start:])
	}
	return out
}
