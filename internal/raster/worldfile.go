package raster

import (
	"bufio"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"habitat-mapper/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

// FileSource is a Source backed by a georeferenced image on disk: a TIFF,
// PNG, or JPEG with an ESRI world file sidecar carrying the affine transform
// and an optional .prj sidecar naming the CRS. Pixels with zero alpha are
// treated as invalid (nodata).
type FileSource struct {
	img       image.Image
	width     int
	height    int
	transform geometry.AffineTransform
	crs       string
}

// worldFileExts maps image extensions to their conventional world file
// extensions, tried in order before the generic .wld fallback.
var worldFileExts = map[string][]string{
	".tif":  {".tfw"},
	".tiff": {".tfw"},
	".png":  {".pgw"},
	".jpg":  {".jgw"},
	".jpeg": {".jgw"},
}

// Open loads a georeferenced image and its sidecars.
func Open(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode raster: %w", err)
	}

	transform, err := loadWorldFile(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &FileSource{
		img:       img,
		width:     bounds.Dx(),
		height:    bounds.Dy(),
		transform: transform,
		crs:       loadProjection(path),
	}, nil
}

// Size returns the raster dimensions in pixels.
func (s *FileSource) Size() (int, int) { return s.width, s.height }

// Bands returns the number of raster bands. Decoded images always expose
// three color bands here.
func (s *FileSource) Bands() int { return 3 }

// CRS returns the contents of the .prj sidecar, or "" if absent.
func (s *FileSource) CRS() string { return s.crs }

// ReadWindow reads the red, green, and blue bands for a window.
func (s *FileSource) ReadWindow(w Window) ([][]float64, error) {
	if err := s.checkWindow(w); err != nil {
		return nil, err
	}
	bounds := s.img.Bounds()
	n := w.Width * w.Height
	bands := [][]float64{make([]float64, 0, n), make([]float64, 0, n), make([]float64, 0, n)}
	for y := w.Y; y < w.Y+w.Height; y++ {
		for x := w.X; x < w.X+w.Width; x++ {
			r, g, b, _ := s.img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			bands[0] = append(bands[0], float64(r>>8))
			bands[1] = append(bands[1], float64(g>>8))
			bands[2] = append(bands[2], float64(b>>8))
		}
	}
	return bands, nil
}

// ReadMask reads the validity mask for a window. A pixel is invalid when its
// alpha channel is zero.
func (s *FileSource) ReadMask(w Window) ([]bool, error) {
	if err := s.checkWindow(w); err != nil {
		return nil, err
	}
	bounds := s.img.Bounds()
	mask := make([]bool, 0, w.Width*w.Height)
	for y := w.Y; y < w.Y+w.Height; y++ {
		for x := w.X; x < w.X+w.Width; x++ {
			_, _, _, a := s.img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mask = append(mask, a != 0)
		}
	}
	return mask, nil
}

// WindowTransform returns the transform local to the window.
func (s *FileSource) WindowTransform(w Window) geometry.AffineTransform {
	return s.transform.Compose(geometry.Translation(float64(w.X), float64(w.Y)))
}

func (s *FileSource) checkWindow(w Window) error {
	if w.X < 0 || w.Y < 0 || w.Width <= 0 || w.Height <= 0 ||
		w.X+w.Width > s.width || w.Y+w.Height > s.height {
		return fmt.Errorf("window (%d,%d %dx%d) out of raster bounds %dx%d",
			w.X, w.Y, w.Width, w.Height, s.width, s.height)
	}
	return nil
}

// loadWorldFile reads the six-line ESRI world file next to the image. World
// file coordinates reference the center of the top-left pixel; the returned
// transform is shifted by half a pixel so it maps pixel corners.
func loadWorldFile(imagePath string) (geometry.AffineTransform, error) {
	ext := strings.ToLower(filepath.Ext(imagePath))
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))

	candidates := append([]string{}, worldFileExts[ext]...)
	candidates = append(candidates, ".wld")

	var path string
	for _, wext := range candidates {
		p := base + wext
		if _, err := os.Stat(p); err == nil {
			path = p
			break
		}
	}
	if path == "" {
		return geometry.AffineTransform{}, fmt.Errorf("no world file found for %s", imagePath)
	}

	file, err := os.Open(path)
	if err != nil {
		return geometry.AffineTransform{}, fmt.Errorf("failed to open world file: %w", err)
	}
	defer file.Close()

	var vals []float64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return geometry.AffineTransform{}, fmt.Errorf("invalid world file %s: %w", path, err)
		}
		vals = append(vals, v)
	}
	if err := scanner.Err(); err != nil {
		return geometry.AffineTransform{}, fmt.Errorf("failed to read world file: %w", err)
	}
	if len(vals) < 6 {
		return geometry.AffineTransform{}, fmt.Errorf("world file %s has %d values, expected 6", path, len(vals))
	}

	// World file line order: x-scale, y-rotation, x-rotation, y-scale,
	// x-center, y-center of the top-left pixel.
	a, c, b, d, cx, cy := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	return geometry.AffineTransform{
		A: a, B: b, TX: cx - a/2 - b/2,
		C: c, D: d, TY: cy - c/2 - d/2,
	}, nil
}

// loadProjection reads the optional .prj sidecar.
func loadProjection(imagePath string) string {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))
	data, err := os.ReadFile(base + ".prj")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
