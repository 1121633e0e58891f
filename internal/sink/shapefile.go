package sink

import (
	"fmt"
	"os"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// Shapefile DBF columns are capped at ten characters, so names here are the
// truncated forms of the GeoJSON property names.
func shapefileFields() []shp.Field {
	return []shp.Field{
		shp.NumberField("tile_id", 10),
		shp.StringField("best_class", 254),
		shp.FloatField("similarity", 12, 4),
		shp.NumberField("tile_x", 10),
		shp.NumberField("tile_y", 10),
		shp.NumberField("tile_w", 10),
		shp.NumberField("tile_h", 10),
		shp.StringField("source", 254),
		shp.NumberField("red", 3),
		shp.NumberField("green", 3),
		shp.NumberField("blue", 3),
		shp.StringField("color_hex", 7),
	}
}

// WriteShapefile writes features as an ESRI shapefile. When crs holds WKT a
// .prj sidecar is written next to the .shp so GIS tools pick up the
// projection.
func WriteShapefile(path string, feats []Feature, crs string) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("create shapefile: %w", err)
	}
	defer w.Close()

	if err := w.SetFields(shapefileFields()); err != nil {
		return fmt.Errorf("set shapefile fields: %w", err)
	}

	for i, f := range feats {
		points := make([]shp.Point, 0, len(f.Polygon)+1)
		for _, p := range f.Polygon {
			points = append(points, shp.Point{X: p.X, Y: p.Y})
		}
		if len(points) > 0 {
			points = append(points, points[0])
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{points}))
		w.Write(&poly)

		a := f.Attrs
		values := []interface{}{
			a.TileID, a.BestClass, a.Similarity,
			a.TileX, a.TileY, a.TileWidth, a.TileHeight,
			a.SourceFile, int(a.Color.R), int(a.Color.G), int(a.Color.B),
			a.Color.Hex(),
		}
		for col, v := range values {
			if err := w.WriteAttribute(i, col, v); err != nil {
				return fmt.Errorf("write attribute %d of feature %d: %w", col, i, err)
			}
		}
	}

	if crs != "" {
		prj := strings.TrimSuffix(path, ".shp") + ".prj"
		if err := os.WriteFile(prj, []byte(crs), 0644); err != nil {
			return fmt.Errorf("write projection sidecar: %w", err)
		}
	}
	return nil
}
