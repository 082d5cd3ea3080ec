package geometry

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func TestNewRejectsEmptyPart(t *testing.T) {
	if _, err := New(orb.MultiLineString{{{0, 0}}, {}}); err == nil {
		t.Error("Expected error for empty part, got nil")
	}
	g, err := New(orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if g.NumParts() != 2 || g.NumPoints() != 3 {
		t.Errorf("Expected 2 parts and 3 points, got %d and %d", g.NumParts(), g.NumPoints())
	}
}

func TestEqual(t *testing.T) {
	a := &Geometry{Parts: orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}}}}
	tests := []struct {
		name string
		b    *Geometry
		want bool
	}{
		{"same", &Geometry{Parts: orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}}}}, true},
		{"reordered parts", &Geometry{Parts: orb.MultiLineString{{{2, 2}}, {{0, 0}, {1, 1}}}}, false},
		{"reversed points", &Geometry{Parts: orb.MultiLineString{{{1, 1}, {0, 0}}, {{2, 2}}}}, false},
		{"merged parts", &Geometry{Parts: orb.MultiLineString{{{0, 0}, {1, 1}, {2, 2}}}}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Equal(tt.b); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPartsIntersecting(t *testing.T) {
	g := &Geometry{Parts: orb.MultiLineString{
		{{0, 0}, {1, 1}},     // 0
		{{10, 10}, {11, 12}}, // 1
		{{0.5, 5}, {0.5, 6}}, // 2: vertical line
		{{-5, -5}},           // 3: single point
		{{2, 2}, {math.Inf(1), math.Inf(1)}, {3, 3}}, // 4: partly outside projection domain
	}}

	tests := []struct {
		name  string
		bound orb.Bound
		want  []int
	}{
		{"everything", orb.Bound{Min: orb.Point{-100, -100}, Max: orb.Point{100, 100}}, []int{0, 1, 2, 3, 4}},
		{"lower left", orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{2.5, 2.5}}, []int{0, 4}},
		{"vertical line", orb.Bound{Min: orb.Point{0, 5.5}, Max: orb.Point{1, 5.6}}, []int{2}},
		{"nothing", orb.Bound{Min: orb.Point{50, 50}, Max: orb.Point{60, 60}}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.PartsIntersecting(tt.bound)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSplitFinite(t *testing.T) {
	inf := math.Inf(1)
	nan := math.NaN()

	tests := []struct {
		name string
		in   orb.LineString
		want orb.MultiLineString
	}{
		{"all finite", orb.LineString{{0, 0}, {1, 1}}, orb.MultiLineString{{{0, 0}, {1, 1}}}},
		{"split in middle", orb.LineString{{0, 0}, {1, 1}, {inf, 0}, {2, 2}, {3, 3}}, orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}},
		{"lonely point dropped", orb.LineString{{0, 0}, {nan, nan}, {2, 2}, {3, 3}}, orb.MultiLineString{{{2, 2}, {3, 3}}}},
		{"nothing left", orb.LineString{{inf, inf}, {0, 0}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitFinite(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
