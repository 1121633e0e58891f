// Package grid rebuilds the geographic cell layout from classified tiles.
// Overlapping tiles share the visible grid spacing rather than their own
// dimensions, so adjacent cells meet exactly along their shared edges.
package grid

import (
	"fmt"
	"sort"

	"habitat-mapper/internal/classify"
	"habitat-mapper/internal/raster"
	"habitat-mapper/pkg/geometry"
)

// Cell is one reconstructed map cell: a tile's classification paired with the
// grid-spaced pixel footprint and its projected polygon. The polygon has four
// corners ordered top-left, top-right, bottom-right, bottom-left.
type Cell struct {
	TileID      int
	Class       string
	Similarity  float64
	PixelX      int
	PixelY      int
	PixelWidth  int
	PixelHeight int
	Polygon     []geometry.Point2D
}

// Reconstruct builds the output cell grid from tiles and their classification
// results. Results index tiles by TileID; a tile without a result is skipped,
// leaving a hole in the grid rather than an unclassified cell. Cells come out
// in row-major order of their pixel origins.
func Reconstruct(tiles []raster.Tile, results []classify.Result) ([]Cell, error) {
	if len(tiles) == 0 {
		return nil, nil
	}
	byTile := make(map[int]classify.Result, len(results))
	for _, r := range results {
		if r.TileID < 0 || r.TileID >= len(tiles) {
			return nil, fmt.Errorf("result references tile %d outside [0,%d)", r.TileID, len(tiles))
		}
		byTile[r.TileID] = r
	}

	cellW := spacing(tiles, func(t raster.Tile) (int, int) { return t.X, t.Width })
	cellH := spacing(tiles, func(t raster.Tile) (int, int) { return t.Y, t.Height })

	ids := make([]int, 0, len(byTile))
	for id := range byTile {
		ids = append(ids, id)
	}
	// Row-major: scan y before x.
	sort.Slice(ids, func(a, b int) bool {
		ta, tb := tiles[ids[a]], tiles[ids[b]]
		if ta.Y != tb.Y {
			return ta.Y < tb.Y
		}
		return ta.X < tb.X
	})

	cells := make([]Cell, 0, len(ids))
	for _, id := range ids {
		t := tiles[id]
		r := byTile[id]
		cells = append(cells, Cell{
			TileID:      id,
			Class:       r.Class.String(),
			Similarity:  r.Similarity,
			PixelX:      t.X,
			PixelY:      t.Y,
			PixelWidth:  cellW,
			PixelHeight: cellH,
			Polygon:     cellPolygon(t, cellW, cellH),
		})
	}
	return cells, nil
}

// DetailedCells builds one cell per tile using each tile's full footprint
// instead of the shared grid spacing. Overlapping tiles produce overlapping
// polygons; useful for auditing what the model actually saw.
func DetailedCells(tiles []raster.Tile, results []classify.Result) ([]Cell, error) {
	byTile := make(map[int]classify.Result, len(results))
	for _, r := range results {
		if r.TileID < 0 || r.TileID >= len(tiles) {
			return nil, fmt.Errorf("result references tile %d outside [0,%d)", r.TileID, len(tiles))
		}
		byTile[r.TileID] = r
	}

	cells := make([]Cell, 0, len(byTile))
	for id, t := range tiles {
		r, ok := byTile[id]
		if !ok {
			continue
		}
		cells = append(cells, Cell{
			TileID:      id,
			Class:       r.Class.String(),
			Similarity:  r.Similarity,
			PixelX:      t.X,
			PixelY:      t.Y,
			PixelWidth:  t.Width,
			PixelHeight: t.Height,
			Polygon:     cellPolygon(t, t.Width, t.Height),
		})
	}
	return cells, nil
}

// spacing derives the grid step along one axis: the smallest positive gap
// between consecutive distinct tile origins. With fewer than two distinct
// origins the tiles' own extent is the only evidence of scale.
func spacing(tiles []raster.Tile, axis func(raster.Tile) (pos, dim int)) int {
	seen := make(map[int]struct{})
	positions := make([]int, 0, len(tiles))
	for _, t := range tiles {
		pos, _ := axis(t)
		if _, ok := seen[pos]; ok {
			continue
		}
		seen[pos] = struct{}{}
		positions = append(positions, pos)
	}
	if len(positions) < 2 {
		_, dim := axis(tiles[0])
		return dim
	}
	sort.Ints(positions)
	step := 0
	for i := 1; i < len(positions); i++ {
		d := positions[i] - positions[i-1]
		if d > 0 && (step == 0 || d < step) {
			step = d
		}
	}
	if step == 0 {
		_, dim := axis(tiles[0])
		return dim
	}
	return step
}

// cellPolygon maps a cell footprint through its owning tile's transform. The
// transform is window-local, so corners are expressed relative to the tile
// origin before mapping.
func cellPolygon(t raster.Tile, width, height int) []geometry.Point2D {
	w := float64(width)
	h := float64(height)
	return []geometry.Point2D{
		t.Transform.ApplyXY(0, 0),
		t.Transform.ApplyXY(w, 0),
		t.Transform.ApplyXY(w, h),
		t.Transform.ApplyXY(0, h),
	}
}
