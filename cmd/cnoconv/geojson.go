package main

import (
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"cnoview/internal/geometry"
)

// readGeoJSON loads a feature collection of lon/lat features as overlay
// parts. Lines become one part each; polygons contribute one part per
// ring, the way shapefile polygons are written to CNO. Points are skipped.
func readGeoJSON(path string) (*geometry.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid geojson: %w", path, err)
	}

	var parts orb.MultiLineString
	for _, f := range fc.Features {
		parts = appendParts(parts, f.Geometry)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: no line or polygon features", path)
	}
	return geometry.New(parts)
}

func appendParts(parts orb.MultiLineString, g orb.Geometry) orb.MultiLineString {
	switch g := g.(type) {
	case orb.LineString:
		parts = appendPart(parts, g)
	case orb.MultiLineString:
		for _, ls := range g {
			parts = appendPart(parts, ls)
		}
	case orb.Ring:
		parts = appendPart(parts, orb.LineString(g))
	case orb.Polygon:
		for _, r := range g {
			parts = appendPart(parts, orb.LineString(r))
		}
	case orb.MultiPolygon:
		for _, p := range g {
			parts = appendParts(parts, p)
		}
	case orb.Collection:
		for _, c := range g {
			parts = appendParts(parts, c)
		}
	}
	return parts
}

func appendPart(parts orb.MultiLineString, ls orb.LineString) orb.MultiLineString {
	if len(ls) == 0 {
		return parts
	}
	return append(parts, ls)
}

// writeGeoJSON writes every part of g as a LineString feature carrying its
// part index, single-point parts included. Points a projection could not
// map split their part into several features with the same index.
func writeGeoJSON(w io.Writer, g *geometry.Geometry) error {
	fc := geojson.NewFeatureCollection()
	for i, part := range g.Parts {
		for _, run := range finiteRuns(part) {
			f := geojson.NewFeature(run)
			f.Properties["part"] = i
			fc.Append(f)
		}
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// finiteRuns splits ls at non-finite points, keeping runs of any length.
func finiteRuns(ls orb.LineString) []orb.LineString {
	var runs []orb.LineString
	var run orb.LineString
	for _, p := range ls {
		if geometry.IsFinite(p) {
			run = append(run, p)
			continue
		}
		if len(run) > 0 {
			runs = append(runs, run)
			run = nil
		}
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}
