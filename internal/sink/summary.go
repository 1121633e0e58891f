package sink

import (
	"sort"

	"habitat-mapper/internal/classify"
	"habitat-mapper/internal/palette"
	"habitat-mapper/internal/progress"
	"habitat-mapper/pkg/colorutil"
)

// ReportClassSummary logs the class distribution of a classification run,
// one line per class in alphabetical order.
func ReportClassSummary(rep progress.Reporter, results []classify.Result, pal palette.Palette) {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Class.String()]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rep.Infof("class distribution across %d tiles:", len(results))
	for _, name := range names {
		rgb, ok := pal[name]
		if !ok {
			rgb = colorutil.Gray
		}
		rep.Infof("  %s: %d tiles (%s)", name, counts[name], rgb.Hex())
	}
}
