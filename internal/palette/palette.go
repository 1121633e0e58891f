// Package palette assigns display colors to habitat classes, either from an
// evenly spaced hue wheel or from an external color table.
package palette

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"habitat-mapper/internal/classname"
	"habitat-mapper/pkg/colorutil"
)

// Palette maps class name strings to display colors.
type Palette map[string]colorutil.RGB

// Assign gives every class a color. Classes are sorted alphabetically first,
// so the same class set always yields the same colors regardless of the order
// classes were discovered in. With overrides present, each class is looked up
// by its normalized top-level key and unmatched classes fall back to gray.
func Assign(classes []string, overrides map[string]string) Palette {
	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)

	pal := make(Palette, len(sorted))
	if len(overrides) > 0 {
		for _, class := range sorted {
			key := classname.Parse(class).ColorKey()
			if hex, ok := overrides[key]; ok {
				if rgb, err := colorutil.ParseHex(hex); err == nil {
					pal[class] = rgb
					continue
				}
			}
			pal[class] = colorutil.Gray
		}
		return pal
	}

	n := len(sorted)
	for i, class := range sorted {
		hue := 360 * float64(i) / float64(n)
		pal[class] = colorutil.HSVToRGB(hue, 0.8, 0.9)
	}
	return pal
}

// LoadOverrides reads a class-to-color table from a CSV with habitat_name and
// cat_color columns. Keys are lowercased and trimmed to match ColorKey
// output; values stay as-is for ParseHex.
func LoadOverrides(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open color table: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read color table header: %w", err)
	}
	nameCol, colorCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case "habitat_name":
			nameCol = i
		case "cat_color":
			colorCol = i
		}
	}
	if nameCol < 0 || colorCol < 0 {
		return nil, fmt.Errorf("color table %s is missing habitat_name or cat_color column", path)
	}

	overrides := make(map[string]string)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read color table row: %w", err)
		}
		if nameCol >= len(row) || colorCol >= len(row) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row[nameCol]))
		key = strings.ReplaceAll(key, " ", "-")
		if key == "" {
			continue
		}
		overrides[key] = strings.TrimSpace(row[colorCol])
	}
	return overrides, nil
}
