package sink

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// WriteGeoJSON writes features as a GeoJSON FeatureCollection. Polygons keep
// their projected coordinates; CRS (when known) is recorded as a foreign
// member since RFC 7946 has no CRS field.
func WriteGeoJSON(path string, feats []Feature, crs string) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range feats {
		ring := make(orb.Ring, 0, len(f.Polygon)+1)
		for _, p := range f.Polygon {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		if len(ring) > 0 {
			ring = append(ring, ring[0])
		}
		feature := geojson.NewFeature(orb.Polygon{ring})
		feature.Properties = geojson.Properties{
			"tile_id":     f.Attrs.TileID,
			"best_class":  f.Attrs.BestClass,
			"similarity":  f.Attrs.Similarity,
			"tile_x":      f.Attrs.TileX,
			"tile_y":      f.Attrs.TileY,
			"tile_width":  f.Attrs.TileWidth,
			"tile_height": f.Attrs.TileHeight,
			"source_file": f.Attrs.SourceFile,
			"red":         int(f.Attrs.Color.R),
			"green":       int(f.Attrs.Color.G),
			"blue":        int(f.Attrs.Color.B),
			"color_hex":   f.Attrs.Color.Hex(),
		}
		fc.Append(feature)
	}
	if crs != "" {
		fc.ExtraMembers = geojson.Properties{"crs": crs}
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal feature collection: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}
