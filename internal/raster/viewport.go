package raster

import (
	"math"

	"github.com/paulmach/orb"
)

// Viewport maps plot coordinates inside Extent onto a Width x Height pixel
// grid with the origin at the top left.
type Viewport struct {
	Extent orb.Bound
	Width  int
	Height int
}

// ToPixel returns the pixel holding p. Points outside Extent map outside
// the grid.
func (v Viewport) ToPixel(p orb.Point) (int, int) {
	x := scale(p[0], v.Extent.Min[0], v.Extent.Max[0], v.Width)
	y := scale(v.Extent.Max[1]-p[1]+v.Extent.Min[1], v.Extent.Min[1], v.Extent.Max[1], v.Height)
	return x, y
}

// Contains reports whether the pixel lies on the grid.
func (v Viewport) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < v.Width && y < v.Height
}

func scale(c, min, max float64, size int) int {
	span := max - min
	if span <= 0 {
		return (size - 1) / 2
	}
	return int(math.Round((c - min) / span * float64(size-1)))
}
