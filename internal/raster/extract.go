package raster

import (
	"errors"
	"fmt"
	"image"
	"math"

	"habitat-mapper/internal/progress"
)

// ErrNoTiles is returned when every candidate window was rejected.
var ErrNoTiles = errors.New("no tiles extracted")

// ExtractTiles partitions a raster into tiles of tileSize pixels on a
// row-major scan with step tileSize-overlap. Candidate windows are rejected
// when they fall short of the full tile size (raster edges are never padded)
// or when any pixel in the window is masked invalid. Pixel values are
// normalized to bytes per tile. The returned ordering is deterministic:
// ascending by (row, col).
func ExtractTiles(src Source, sourceFile string, tileSize, overlap int, rep progress.Reporter) ([]Tile, error) {
	if tileSize <= 0 {
		return nil, fmt.Errorf("invalid tile size %d", tileSize)
	}
	if overlap < 0 || overlap >= tileSize {
		return nil, fmt.Errorf("invalid overlap %d for tile size %d", overlap, tileSize)
	}
	if src.Bands() < 3 {
		return nil, fmt.Errorf("raster has %d bands, need at least 3", src.Bands())
	}

	width, height := src.Size()
	step := tileSize - overlap
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	rep.Infof("raster %dx%d pixels, %d bands, CRS %s", width, height, src.Bands(), src.CRS())
	rep.StartStage("extracting tiles", tilesX*tilesY)
	defer rep.EndStage()

	var tiles []Tile
	row := 0
	for y := 0; y < height; y += step {
		col := 0
		for x := 0; x < width; x += step {
			advance := func() { col++; rep.Advance() }

			// Edge tiles are dropped, never padded, so every surviving
			// tile has uniform dimensions.
			if width-x < tileSize || height-y < tileSize {
				advance()
				continue
			}

			window := Window{X: x, Y: y, Width: tileSize, Height: tileSize}

			mask, err := src.ReadMask(window)
			if err != nil {
				return nil, fmt.Errorf("read mask at (%d,%d): %w", x, y, err)
			}
			if anyInvalid(mask) {
				advance()
				continue
			}

			bands, err := src.ReadWindow(window)
			if err != nil {
				return nil, fmt.Errorf("read window at (%d,%d): %w", x, y, err)
			}

			tiles = append(tiles, Tile{
				Image:      normalizeTile(bands[:3], tileSize, tileSize),
				X:          x,
				Y:          y,
				Width:      tileSize,
				Height:     tileSize,
				Row:        row,
				Col:        col,
				Transform:  src.WindowTransform(window),
				CRS:        src.CRS(),
				SourceFile: sourceFile,
			})
			advance()
		}
		row++
	}

	if len(tiles) == 0 {
		return nil, ErrNoTiles
	}
	rep.Infof("extracted %d tiles", len(tiles))
	return tiles, nil
}

func anyInvalid(mask []bool) bool {
	for _, valid := range mask {
		if !valid {
			return true
		}
	}
	return false
}

// normalizeTile converts the first three bands of raw values into an 8-bit
// RGB image. Values already in the byte range pass through; otherwise data in
// [0,1] is scaled by 255 and anything else is min-max stretched across the
// tile's own band values.
func normalizeTile(bands [][]float64, width, height int) *image.RGBA {
	minV, maxV := bands[0][0], bands[0][0]
	byteRange := true
	for _, band := range bands {
		for _, v := range band {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
			if v != math.Trunc(v) || v < 0 || v > 255 {
				byteRange = false
			}
		}
	}

	toByte := func(v float64) uint8 {
		switch {
		case byteRange:
			return uint8(v)
		case maxV <= 1.0:
			return uint8(math.Round(v * 255))
		case maxV > minV:
			return uint8(math.Round((v - minV) / (maxV - minV) * 255))
		default:
			return 0
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			o := img.PixOffset(x, y)
			img.Pix[o+0] = toByte(bands[0][i])
			img.Pix[o+1] = toByte(bands[1][i])
			img.Pix[o+2] = toByte(bands[2][i])
			img.Pix[o+3] = 255
		}
	}
	return img
}
