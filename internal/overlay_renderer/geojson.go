package overlay_renderer

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONSurface collects drawn lines as a GeoJSON feature collection with
// one LineString feature per line. Properties record the source part order.
type GeoJSONSurface struct {
	Collection *geojson.FeatureCollection
	Extent     orb.Bound
}

func NewGeoJSONSurface() *GeoJSONSurface {
	return &GeoJSONSurface{Collection: geojson.NewFeatureCollection()}
}

func (s *GeoJSONSurface) DrawLines(lines orb.MultiLineString, extent orb.Bound) {
	s.Extent = extent
	for _, line := range lines {
		f := geojson.NewFeature(line.Clone())
		f.Properties["index"] = len(s.Collection.Features)
		s.Collection.Append(f)
	}
	if !extent.IsEmpty() {
		s.Collection.BBox = geojson.NewBBox(extent)
	}
}

// MarshalJSON encodes the collected features.
func (s *GeoJSONSurface) MarshalJSON() ([]byte, error) {
	return s.Collection.MarshalJSON()
}
