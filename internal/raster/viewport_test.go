package raster

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestViewportToPixel(t *testing.T) {
	v := Viewport{
		Extent: orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}},
		Width:  361,
		Height: 181,
	}

	tests := []struct {
		name string
		p    orb.Point
		x, y int
	}{
		{"top left", orb.Point{-180, 90}, 0, 0},
		{"bottom right", orb.Point{180, -90}, 360, 180},
		{"origin", orb.Point{0, 0}, 180, 90},
		{"north east", orb.Point{90, 45}, 270, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := v.ToPixel(tt.p)
			if x != tt.x || y != tt.y {
				t.Errorf("ToPixel(%v) = (%d, %d), want (%d, %d)", tt.p, x, y, tt.x, tt.y)
			}
			if !v.Contains(x, y) {
				t.Errorf("Expected (%d, %d) inside the grid", x, y)
			}
		})
	}
}

func TestViewportDegenerateExtent(t *testing.T) {
	v := Viewport{
		Extent: orb.Bound{Min: orb.Point{5, 0}, Max: orb.Point{5, 10}},
		Width:  11,
		Height: 11,
	}
	x, y := v.ToPixel(orb.Point{5, 10})
	if x != 5 || y != 0 {
		t.Errorf("Expected (5, 0), got (%d, %d)", x, y)
	}
}

func TestViewportContains(t *testing.T) {
	v := Viewport{Width: 10, Height: 5}
	if v.Contains(10, 0) || v.Contains(0, 5) || v.Contains(-1, 0) {
		t.Error("Expected pixels off the grid to be rejected")
	}
	if !v.Contains(9, 4) {
		t.Error("Expected bottom right pixel to be on the grid")
	}
}
