// Package render draws quicklook previews of classification results so a run
// can be sanity-checked without opening a GIS.
package render

import (
	"fmt"
	"image"
	"image/color"

	"habitat-mapper/internal/grid"
	"habitat-mapper/internal/palette"
	"habitat-mapper/pkg/colorutil"

	"gocv.io/x/gocv"
)

// maxCanvas caps the longest quicklook edge in pixels.
const maxCanvas = 2000

// WriteQuicklook renders cells in raster pixel space onto a scaled canvas and
// writes it as an image file (format chosen by extension). Cells are filled
// with their class color; uncovered pixels stay black.
func WriteQuicklook(path string, cells []grid.Cell, rasterWidth, rasterHeight int, pal palette.Palette) error {
	if rasterWidth <= 0 || rasterHeight <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", rasterWidth, rasterHeight)
	}
	scale := 1.0
	if longest := max(rasterWidth, rasterHeight); longest > maxCanvas {
		scale = float64(maxCanvas) / float64(longest)
	}
	width := int(float64(rasterWidth) * scale)
	height := int(float64(rasterHeight) * scale)

	canvas := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	for _, c := range cells {
		rgb, ok := pal[c.Class]
		if !ok {
			rgb = colorutil.Gray
		}
		rect := image.Rect(
			int(float64(c.PixelX)*scale),
			int(float64(c.PixelY)*scale),
			int(float64(c.PixelX+c.PixelWidth)*scale),
			int(float64(c.PixelY+c.PixelHeight)*scale),
		)
		gocv.Rectangle(&canvas, rect, color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}, -1)
	}

	if ok := gocv.IMWrite(path, canvas); !ok {
		return fmt.Errorf("write quicklook %s", path)
	}
	return nil
}
