package projection

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"cnoview/internal/geometry"
)

// lcc12US2 is the EPA 12US2 Lambert Conformal Conic grid.
const lcc12US2 = "+proj=lcc +lat_0=40 +lon_0=-97 +lat_1=33 +lat_2=45 " +
	"+x_0=2412000 +y_0=1620000 +R=6370000 +to_meter=12000 +no_defs"

// stere108NHEMI2 is the EPA 108NHEMI2 polar stereographic grid.
const stere108NHEMI2 = "+proj=stere +lat_0=90 +lat_ts=45 +lon_0=-98 " +
	"+x_0=10098000 +y_0=10098000 +R=6370000 +to_meter=108000 +no_defs"

const tolerance = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestLambertConformalConicReference(t *testing.T) {
	p, err := Parse(lcc12US2)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		lon, lat float64
		x, y     float64
	}{
		{-97, 40, 201, 135},
		{-80, 35, 328.882163572398, 100.894413763279},
		{-120, 45, 51.925956833714, 200.134737388946},
		{-97, 25, 201, -4.476863017218},
		{-15.8, 28.0, 787.571344664785, 304.817019309300},
	}

	for _, tt := range tests {
		x, y, err := p.Forward(tt.lon, tt.lat)
		if err != nil {
			t.Errorf("Forward(%g, %g) failed: %v", tt.lon, tt.lat, err)
			continue
		}
		if !near(x, tt.x) || !near(y, tt.y) {
			t.Errorf("Forward(%g, %g) = (%.9f, %.9f), want (%.9f, %.9f)", tt.lon, tt.lat, x, y, tt.x, tt.y)
		}
	}
}

func TestLambertConformalConicProjectedOverlay(t *testing.T) {
	g := &geometry.Geometry{Parts: orb.MultiLineString{
		{{-97, 40}, {-80, 35}},
		{{-120, 45}},
	}}

	got, err := Project(g, MustParse(lcc12US2))
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	want := orb.MultiLineString{
		{{201, 135}, {328.882163572398, 100.894413763279}},
		{{51.925956833714, 200.134737388946}},
	}
	if len(got.Parts) != len(want) {
		t.Fatalf("Expected %d parts, got %d", len(want), len(got.Parts))
	}
	for i := range want {
		if len(got.Parts[i]) != len(want[i]) {
			t.Fatalf("part %d: expected %d points, got %d", i, len(want[i]), len(got.Parts[i]))
		}
		for j := range want[i] {
			if !near(got.Parts[i][j][0], want[i][j][0]) || !near(got.Parts[i][j][1], want[i][j][1]) {
				t.Errorf("part %d point %d: expected %v, got %v", i, j, want[i][j], got.Parts[i][j])
			}
		}
	}
}

func TestPolarStereographicReference(t *testing.T) {
	p := MustParse(stere108NHEMI2)

	tests := []struct {
		lon, lat float64
		x, y     float64
	}{
		{0, 90, 93.5, 93.5},
		{-98, 45, 93.5, 51.793794480016},
		{-8, 60, 120.479184419800, 93.5},
		{82, 0, 93.5, 194.187687001466},
	}
	for _, tt := range tests {
		x, y, err := p.Forward(tt.lon, tt.lat)
		if err != nil {
			t.Fatalf("Forward failed: %v", err)
		}
		if !near(x, tt.x) || !near(y, tt.y) {
			t.Errorf("Forward(%g, %g) = (%.9f, %.9f), want (%.9f, %.9f)", tt.lon, tt.lat, x, y, tt.x, tt.y)
		}
	}
}

func TestLambertAntipodalPoleIsNotFinite(t *testing.T) {
	x, y, err := MustParse(lcc12US2).Forward(10, -90)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if geometry.IsFinite(orb.Point{x, y}) {
		t.Errorf("Expected non-finite result at the south pole, got (%g, %g)", x, y)
	}
}

func TestMercator(t *testing.T) {
	p := MustParse("+proj=merc")
	x, y, err := p.Forward(180, 0)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if math.Abs(x-math.Pi*orb.EarthRadius) > 1e-3 || math.Abs(y) > 1e-3 {
		t.Errorf("Forward(180, 0) = (%g, %g)", x, y)
	}
}

func TestLongLat(t *testing.T) {
	p := MustParse("+proj=longlat +no_defs")
	x, y, err := p.Forward(-97.5, 40.25)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if x != -97.5 || y != 40.25 {
		t.Errorf("Expected unchanged coordinates, got (%g, %g)", x, y)
	}
}

func TestParseErrors(t *testing.T) {
	defs := []string{
		"",
		"proj=lcc",
		"+proj=utm +zone=17",
		"+proj=lcc +lat_1=abc",
		"+proj=lcc +lat_1",
		"+proj=lcc +lat_1=30 +lat_2=-30",
		"+proj=stere +lat_0=45",
		"+proj=lcc +ellps=GRS80",
		"+proj=lcc +to_meter=0",
		"+proj=lcc +R=1 +R=2",
	}
	for _, def := range defs {
		_, err := Parse(def)
		var de *DefinitionError
		if !errors.As(err, &de) {
			t.Errorf("Parse(%q): expected DefinitionError, got %v", def, err)
		}
	}
}

func TestParseNormalizesID(t *testing.T) {
	a := MustParse(lcc12US2)
	b := MustParse("+no_defs +R=6.37e6 +to_meter=12000 +x_0=2412000 +y_0=1620000 " +
		"+lat_2=45 +lat_1=33 +lon_0=-97 +lat_0=40 +proj=lcc")
	if a.ID() != b.ID() {
		t.Errorf("Expected equal IDs:\n%s\n%s", a.ID(), b.ID())
	}
	if !strings.HasPrefix(a.ID(), "+proj=lcc ") {
		t.Errorf("Unexpected ID %s", a.ID())
	}
	if MustParse(stere108NHEMI2).ID() == a.ID() {
		t.Error("Different projections share an ID")
	}
}
