package raster

import (
	"fmt"

	"habitat-mapper/pkg/geometry"
)

// MemorySource is an in-memory Source backed by band slices. It is the
// reference implementation used by tests and small synthetic rasters.
type MemorySource struct {
	width, height int
	bands         [][]float64 // band-major, each width*height row-major
	mask          []bool      // row-major; nil means all pixels valid
	transform     geometry.AffineTransform
	crs           string
}

// NewMemorySource creates a MemorySource. Each band slice must hold
// width*height row-major values; mask may be nil for an all-valid raster.
func NewMemorySource(width, height int, bands [][]float64, mask []bool, transform geometry.AffineTransform, crs string) (*MemorySource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster dimensions %dx%d", width, height)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster has no bands")
	}
	for i, band := range bands {
		if len(band) != width*height {
			return nil, fmt.Errorf("band %d has %d values, expected %d", i, len(band), width*height)
		}
	}
	if mask != nil && len(mask) != width*height {
		return nil, fmt.Errorf("mask has %d values, expected %d", len(mask), width*height)
	}
	return &MemorySource{
		width:     width,
		height:    height,
		bands:     bands,
		mask:      mask,
		transform: transform,
		crs:       crs,
	}, nil
}

// Size returns the raster dimensions in pixels.
func (s *MemorySource) Size() (int, int) { return s.width, s.height }

// Bands returns the number of raster bands.
func (s *MemorySource) Bands() int { return len(s.bands) }

// CRS returns the coordinate reference system identifier.
func (s *MemorySource) CRS() string { return s.crs }

// ReadWindow reads raw pixel values for a window.
func (s *MemorySource) ReadWindow(w Window) ([][]float64, error) {
	if err := s.checkWindow(w); err != nil {
		return nil, err
	}
	out := make([][]float64, len(s.bands))
	for b, band := range s.bands {
		vals := make([]float64, 0, w.Width*w.Height)
		for y := w.Y; y < w.Y+w.Height; y++ {
			vals = append(vals, band[y*s.width+w.X:y*s.width+w.X+w.Width]...)
		}
		out[b] = vals
	}
	return out, nil
}

// ReadMask reads the validity mask for a window.
func (s *MemorySource) ReadMask(w Window) ([]bool, error) {
	if err := s.checkWindow(w); err != nil {
		return nil, err
	}
	out := make([]bool, 0, w.Width*w.Height)
	for y := w.Y; y < w.Y+w.Height; y++ {
		for x := w.X; x < w.X+w.Width; x++ {
			if s.mask == nil {
				out = append(out, true)
			} else {
				out = append(out, s.mask[y*s.width+x])
			}
		}
	}
	return out, nil
}

// WindowTransform returns the transform local to the window: the global
// transform shifted by the window's pixel origin.
func (s *MemorySource) WindowTransform(w Window) geometry.AffineTransform {
	return s.transform.Compose(geometry.Translation(float64(w.X), float64(w.Y)))
}

func (s *MemorySource) checkWindow(w Window) error {
	if w.X < 0 || w.Y < 0 || w.Width <= 0 || w.Height <= 0 ||
		w.X+w.Width > s.width || w.Y+w.Height > s.height {
		return fmt.Errorf("window (%d,%d %dx%d) out of raster bounds %dx%d",
			w.X, w.Y, w.Width, w.Height, s.width, s.height)
	}
	return nil
}
