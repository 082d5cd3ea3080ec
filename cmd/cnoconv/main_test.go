package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"cnoview/internal/cno"
)

const sample = "-15.8,28\n-15.67,27.75\n9999\n-16.5,28.1\n-16.4,28.3\n"

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func convert(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"-data", t.TempDir()}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func TestRoundTripThroughCNOB(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "sample.cno", sample)
	bin := filepath.Join(dir, "sample.cnob")
	back := filepath.Join(dir, "back.cno")

	if _, err := convert(t, in, bin); err != nil {
		t.Fatalf("cno -> cnob failed: %v", err)
	}
	if _, err := convert(t, bin, back); err != nil {
		t.Fatalf("cnob -> cno failed: %v", err)
	}

	want, err := cno.DecodeFile(in, cno.FormatText)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cno.DecodeFile(back, cno.FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Errorf("Round trip changed the overlay: %v vs %v", got.Parts, want.Parts)
	}
}

func TestGeoJSONToStdout(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "sample.cno", sample)

	out, err := convert(t, "-to", "geojson", in, "-")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal([]byte(out), &fc); err != nil {
		t.Fatalf("Invalid geojson %q: %v", out, err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Errorf("Unexpected output %s", out)
	}
}

func TestGeoJSONKeepsSinglePointParts(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "islands.cno", "1,2\n9999\n3,4\n5,6\n9999\n7,8\n")
	gj := filepath.Join(dir, "islands.geojson")

	if _, err := convert(t, in, gj); err != nil {
		t.Fatalf("cno -> geojson failed: %v", err)
	}
	out, err := convert(t, "-to", "cno", gj, "-")
	if err != nil {
		t.Fatalf("geojson -> cno failed: %v", err)
	}

	want, err := cno.DecodeFile(in, cno.FormatText)
	if err != nil {
		t.Fatal(err)
	}
	got, err := cno.DecodeText(strings.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeText failed: %v\n%s", err, out)
	}
	if !got.Equal(want) {
		t.Errorf("GeoJSON round trip changed the overlay: %v vs %v", got.Parts, want.Parts)
	}
}

func TestFiniteRuns(t *testing.T) {
	inf := math.Inf(1)
	runs := finiteRuns(orb.LineString{{1, 1}, {inf, 0}, {2, 2}, {3, 3}, {0, inf}, {4, 4}})
	if len(runs) != 3 || len(runs[0]) != 1 || len(runs[1]) != 2 || len(runs[2]) != 1 {
		t.Errorf("Unexpected runs %v", runs)
	}
}

func TestGeoJSONInput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "shapes.geojson", `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "Polygon",
      "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]], [[0.2, 0.2], [0.4, 0.2], [0.2, 0.4], [0.2, 0.2]]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString",
      "coordinates": [[10, 10], [11, 11]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [5, 5]}}
  ]
}`)

	out, err := convert(t, "-from", "geojson", "-to", "cno", in, "-")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	g, err := cno.DecodeText(strings.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeText failed: %v\n%s", err, out)
	}
	if g.NumParts() != 3 || g.NumPoints() != 10 {
		t.Errorf("Expected 3 parts and 10 points, got %d and %d", g.NumParts(), g.NumPoints())
	}
}

func TestProjectedGeoJSON(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "origin.cno", "-97,40\n-80,35\n")

	out, err := convert(t, "-proj", "+proj=lcc +lat_0=40 +lon_0=-97 +lat_1=33 +lat_2=45 +x_0=2412000 +y_0=1620000 +R=6370000 +to_meter=12000", in, filepath.Join(dir, "out.geojson"))
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if out != "" {
		t.Errorf("Expected nothing on stdout, got %q", out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.geojson"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("[201,135]")) {
		t.Errorf("Expected projected origin in %s", data)
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "sample.cno", sample)
	existing := writeFile(t, dir, "existing.cnob", "")

	tests := []struct {
		name string
		args []string
	}{
		{"missing arguments", []string{in}},
		{"unknown output extension", []string{in, filepath.Join(dir, "out.txt")}},
		{"no output extension", []string{in, filepath.Join(dir, "out")}},
		{"existing output", []string{in, existing}},
		{"projection into cno", []string{"-proj", "+proj=merc", in, filepath.Join(dir, "out.cno")}},
		{"missing input", []string{filepath.Join(dir, "missing.cno"), "-"}},
		{"bad input format", []string{"-from", "shp", in, filepath.Join(dir, "x.cnob")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := convert(t, tt.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := convert(t, in); !errors.Is(err, errUsage) {
		t.Errorf("Expected usage error, got %v", err)
	}
	if data, _ := os.ReadFile(existing); len(data) != 0 {
		t.Error("Existing output was overwritten")
	}
	if _, err := convert(t, "-force", in, existing); err != nil {
		t.Errorf("Expected -force to overwrite, got %v", err)
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		to, out string
		want    string
	}{
		{"", "a.cno", "cno"},
		{"", "a.CNOB", "cnob"},
		{"", "a.json", "geojson"},
		{"cnob", "-", "cnob"},
		{"GeoJSON", "a.cno", "geojson"},
	}
	for _, tt := range tests {
		got, err := outputFormat(tt.to, tt.out)
		if err != nil || got != tt.want {
			t.Errorf("outputFormat(%q, %q) = %q, %v; want %q", tt.to, tt.out, got, err, tt.want)
		}
	}
}
