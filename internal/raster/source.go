// Package raster provides the raster source abstraction and the tile
// extractor that partitions a georeferenced raster into fixed-size tiles.
package raster

import (
	"image"

	"habitat-mapper/pkg/geometry"
)

// Window is a rectangular pixel region of a raster.
type Window struct {
	X, Y          int
	Width, Height int
}

// Source exposes the raster operations the pipeline needs. Implementations
// wrap whatever storage actually holds the pixels; the extractor only sees
// this contract.
type Source interface {
	// Size returns the raster dimensions in pixels.
	Size() (width, height int)
	// Bands returns the number of raster bands.
	Bands() int
	// CRS returns the coordinate reference system identifier, or "" if unknown.
	CRS() string
	// ReadWindow reads raw pixel values for a window, band-major: one
	// row-major slice of Width*Height values per band.
	ReadWindow(w Window) ([][]float64, error)
	// ReadMask reads the validity mask for a window, row-major. A false
	// entry marks an invalid (nodata) pixel.
	ReadMask(w Window) ([]bool, error)
	// WindowTransform returns the affine transform mapping window-local
	// pixel coordinates to projected coordinates.
	WindowTransform(w Window) geometry.AffineTransform
}

// Tile is one surviving fixed-size window of the raster, with its normalized
// pixel data and the geometry needed to place it back on the map. Tiles are
// immutable once extracted.
type Tile struct {
	Image  *image.RGBA // normalized 8-bit RGB pixels
	X, Y   int         // pixel origin within the source raster
	Width  int
	Height int
	Row    int // scan row index (counts skipped candidates too)
	Col    int // scan column index
	Transform  geometry.AffineTransform // window-local pixel -> projected
	CRS        string
	SourceFile string
}
