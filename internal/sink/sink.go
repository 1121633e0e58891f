// Package sink writes classification outputs in GIS-consumable formats:
// GeoJSON, ESRI shapefiles, and plain CSV result tables.
package sink

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"habitat-mapper/internal/classify"
	"habitat-mapper/internal/grid"
	"habitat-mapper/internal/palette"
	"habitat-mapper/internal/raster"
	"habitat-mapper/pkg/colorutil"
	"habitat-mapper/pkg/geometry"
)

// Attributes is the per-cell attribute row shared by every spatial format.
type Attributes struct {
	TileID     int
	BestClass  string
	Similarity float64
	TileX      int
	TileY      int
	TileWidth  int
	TileHeight int
	SourceFile string
	Color      colorutil.RGB
}

// Feature pairs a projected cell polygon with its attributes.
type Feature struct {
	Polygon []geometry.Point2D
	Attrs   Attributes
}

// BuildFeatures turns reconstructed cells into sink features, resolving each
// cell's source file from its tile and its color from the palette. Cells
// whose class is missing from the palette render gray.
func BuildFeatures(cells []grid.Cell, tiles []raster.Tile, pal palette.Palette) []Feature {
	feats := make([]Feature, 0, len(cells))
	for _, c := range cells {
		rgb, ok := pal[c.Class]
		if !ok {
			rgb = colorutil.Gray
		}
		var sourceFile string
		if c.TileID >= 0 && c.TileID < len(tiles) {
			sourceFile = tiles[c.TileID].SourceFile
		}
		feats = append(feats, Feature{
			Polygon: c.Polygon,
			Attrs: Attributes{
				TileID:     c.TileID,
				BestClass:  c.Class,
				Similarity: roundSimilarity(c.Similarity),
				TileX:      c.PixelX,
				TileY:      c.PixelY,
				TileWidth:  c.PixelWidth,
				TileHeight: c.PixelHeight,
				SourceFile: sourceFile,
				Color:      rgb,
			},
		})
	}
	return feats
}

// roundSimilarity keeps attribute tables readable without losing anything a
// map viewer would show.
func roundSimilarity(s float64) float64 {
	return math.Round(s*10000) / 10000
}

// WriteResultsCSV writes the flat per-tile classification table.
func WriteResultsCSV(path string, tiles []raster.Tile, results []classify.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{
		"tile_id", "source_file", "tile_x", "tile_y",
		"tile_width", "tile_height", "row", "col",
		"best_class", "query_similarity",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		if r.TileID < 0 || r.TileID >= len(tiles) {
			return fmt.Errorf("result references tile %d outside [0,%d)", r.TileID, len(tiles))
		}
		t := tiles[r.TileID]
		row := []string{
			strconv.Itoa(r.TileID),
			t.SourceFile,
			strconv.Itoa(t.X),
			strconv.Itoa(t.Y),
			strconv.Itoa(t.Width),
			strconv.Itoa(t.Height),
			strconv.Itoa(t.Row),
			strconv.Itoa(t.Col),
			r.Class.String(),
			strconv.FormatFloat(r.Similarity, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
