package grid

import (
	"math"
	"testing"

	"habitat-mapper/internal/classify"
	"habitat-mapper/internal/classname"
	"habitat-mapper/internal/raster"
	"habitat-mapper/pkg/geometry"
)

// makeTile builds a tile at pixel (x,y) whose transform maps window-local
// pixels through a global 1:1 transform offset by the tile origin.
func makeTile(x, y, size int, global geometry.AffineTransform) raster.Tile {
	return raster.Tile{
		X:         x,
		Y:         y,
		Width:     size,
		Height:    size,
		Transform: global.Compose(geometry.Translation(float64(x), float64(y))),
	}
}

func resultsFor(tiles []raster.Tile, class string) []classify.Result {
	out := make([]classify.Result, len(tiles))
	for i := range tiles {
		out[i] = classify.Result{TileID: i, Class: classname.Parse(class), Similarity: 0.5}
	}
	return out
}

func TestReconstructSharedEdges(t *testing.T) {
	t.Parallel()

	// Overlapping 256px tiles on a 128px step: cells must shrink to the
	// step so neighbors meet exactly.
	global := geometry.AffineTransform{A: 1, D: -1, TX: 1000, TY: 2000}
	var tiles []raster.Tile
	for _, x := range []int{0, 128, 256} {
		tiles = append(tiles, makeTile(x, 0, 256, global))
	}

	cells, err := Reconstruct(tiles, resultsFor(tiles, "forest"))
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("got %d cells, want 3", len(cells))
	}
	for _, c := range cells {
		if c.PixelWidth != 128 {
			t.Errorf("cell width %d, want grid spacing 128", c.PixelWidth)
		}
	}

	// Right edge of one cell equals the left edge of the next.
	for i := 0; i < len(cells)-1; i++ {
		right := cells[i].Polygon[1]
		left := cells[i+1].Polygon[0]
		if math.Abs(right.X-left.X) > 1e-9 || math.Abs(right.Y-left.Y) > 1e-9 {
			t.Errorf("cells %d and %d do not share an edge: %+v vs %+v", i, i+1, right, left)
		}
	}
}

func TestReconstructSparseGridSkipsMissingCells(t *testing.T) {
	t.Parallel()

	// A 3x3 grid of 256px tiles with the center tile missing (rejected
	// upstream): eight cells come out, no filler for the hole.
	global := geometry.Identity()
	var tiles []raster.Tile
	for _, y := range []int{0, 256, 512} {
		for _, x := range []int{0, 256, 512} {
			if x == 256 && y == 256 {
				continue
			}
			tiles = append(tiles, makeTile(x, y, 256, global))
		}
	}

	cells, err := Reconstruct(tiles, resultsFor(tiles, "water"))
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(cells) != 8 {
		t.Fatalf("got %d cells, want 8", len(cells))
	}
	for _, c := range cells {
		if c.PixelX == 256 && c.PixelY == 256 {
			t.Error("missing cell was fabricated")
		}
		if c.PixelWidth != 256 || c.PixelHeight != 256 {
			t.Errorf("cell at (%d,%d) is %dx%d, want 256x256",
				c.PixelX, c.PixelY, c.PixelWidth, c.PixelHeight)
		}
	}

	// Row-major output ordering.
	for i := 1; i < len(cells); i++ {
		prev, cur := cells[i-1], cells[i]
		if cur.PixelY < prev.PixelY || (cur.PixelY == prev.PixelY && cur.PixelX < prev.PixelX) {
			t.Fatalf("cells out of row-major order at %d", i)
		}
	}
}

func TestReconstructSingleTileFallsBackToTileSize(t *testing.T) {
	t.Parallel()

	tiles := []raster.Tile{makeTile(0, 0, 224, geometry.Identity())}
	cells, err := Reconstruct(tiles, resultsFor(tiles, "heath"))
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if cells[0].PixelWidth != 224 || cells[0].PixelHeight != 224 {
		t.Errorf("cell is %dx%d, want tile size 224x224", cells[0].PixelWidth, cells[0].PixelHeight)
	}
}

func TestReconstructMixedSpacingPerAxis(t *testing.T) {
	t.Parallel()

	// Two columns 100px apart, single row: width follows the spacing,
	// height falls back to the tile dimension.
	tiles := []raster.Tile{
		makeTile(0, 0, 224, geometry.Identity()),
		makeTile(100, 0, 224, geometry.Identity()),
	}
	cells, err := Reconstruct(tiles, resultsFor(tiles, "bog"))
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	for _, c := range cells {
		if c.PixelWidth != 100 {
			t.Errorf("cell width %d, want 100", c.PixelWidth)
		}
		if c.PixelHeight != 224 {
			t.Errorf("cell height %d, want 224", c.PixelHeight)
		}
	}
}

func TestReconstructMapsThroughOwningTileTransform(t *testing.T) {
	t.Parallel()

	// 10m pixels, north-up UTM-style transform.
	global := geometry.AffineTransform{A: 10, D: -10, TX: 500000, TY: 4000000}
	tiles := []raster.Tile{
		makeTile(0, 0, 100, global),
		makeTile(100, 0, 100, global),
	}
	cells, err := Reconstruct(tiles, resultsFor(tiles, "forest"))
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}

	second := cells[1]
	wantTopLeft := geometry.Point2D{X: 501000, Y: 4000000}
	if second.Polygon[0] != wantTopLeft {
		t.Errorf("second cell top-left %+v, want %+v", second.Polygon[0], wantTopLeft)
	}
	wantBottomRight := geometry.Point2D{X: 502000, Y: 3999000}
	if second.Polygon[2] != wantBottomRight {
		t.Errorf("second cell bottom-right %+v, want %+v", second.Polygon[2], wantBottomRight)
	}
}

func TestReconstructSkipsTilesWithoutResults(t *testing.T) {
	t.Parallel()

	tiles := []raster.Tile{
		makeTile(0, 0, 64, geometry.Identity()),
		makeTile(64, 0, 64, geometry.Identity()),
	}
	results := []classify.Result{{TileID: 1, Class: classname.Parse("water"), Similarity: 0.9}}

	cells, err := Reconstruct(tiles, results)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("got %d cells, want 1", len(cells))
	}
	if cells[0].TileID != 1 {
		t.Fatalf("cell belongs to tile %d, want 1", cells[0].TileID)
	}
}

func TestReconstructRejectsOutOfRangeResult(t *testing.T) {
	t.Parallel()

	tiles := []raster.Tile{makeTile(0, 0, 64, geometry.Identity())}
	results := []classify.Result{{TileID: 5, Class: classname.Parse("water")}}
	if _, err := Reconstruct(tiles, results); err == nil {
		t.Fatal("out-of-range tile id accepted")
	}
}

func TestDetailedCellsKeepFullFootprint(t *testing.T) {
	t.Parallel()

	// Overlapping tiles keep their own 256px footprint in detailed mode.
	tiles := []raster.Tile{
		makeTile(0, 0, 256, geometry.Identity()),
		makeTile(128, 0, 256, geometry.Identity()),
	}
	cells, err := DetailedCells(tiles, resultsFor(tiles, "forest"))
	if err != nil {
		t.Fatalf("DetailedCells: %v", err)
	}
	for _, c := range cells {
		if c.PixelWidth != 256 || c.PixelHeight != 256 {
			t.Errorf("detailed cell is %dx%d, want 256x256", c.PixelWidth, c.PixelHeight)
		}
	}
}
