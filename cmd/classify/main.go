// Command classify tiles a georeferenced raster, embeds every tile, assigns
// each to its nearest class prototype, and writes the classified map as CSV,
// GeoJSON, shapefile with QGIS style, and a quicklook image.
//
// Usage: classify -raster <image> -prototypes <dir> -url <embedding-service>
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"habitat-mapper/internal/classify"
	"habitat-mapper/internal/config"
	"habitat-mapper/internal/embedding"
	"habitat-mapper/internal/embedding/clip"
	"habitat-mapper/internal/grid"
	"habitat-mapper/internal/palette"
	"habitat-mapper/internal/progress"
	"habitat-mapper/internal/prototype"
	"habitat-mapper/internal/qgisstyle"
	"habitat-mapper/internal/raster"
	"habitat-mapper/internal/render"
	"habitat-mapper/internal/sink"
)

func main() {
	rasterPath := flag.String("raster", "", "Georeferenced raster (TIFF, PNG, or JPEG with world file)")
	protoPath := flag.String("prototypes", "", "Prototype file or directory")
	outPath := flag.String("out", "similarity_results.csv", "Output CSV file; spatial outputs share its stem")
	configPath := flag.String("config", "", "YAML config file")
	baseURL := flag.String("url", "", "Embedding service base URL (overrides config)")
	tileSize := flag.Int("tile", 0, "Tile size in pixels (overrides config)")
	overlap := flag.Int("overlap", -1, "Tile overlap in pixels (overrides config)")
	colorCSV := flag.String("colors", "", "CSV color table with habitat_name and cat_color columns")
	detailed := flag.Bool("detailed", false, "Write full tile footprints instead of grid cells")
	noShapefile := flag.Bool("no-shapefile", false, "Skip shapefile output")
	noGeoJSON := flag.Bool("no-geojson", false, "Skip GeoJSON output")
	quicklook := flag.Bool("quicklook", false, "Write a PNG preview of the classified grid")
	flag.Parse()

	if *rasterPath == "" || *protoPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: classify -raster <image> -prototypes <dir> -url <embedding-service>")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Service.BaseURL = *baseURL
	}
	if *tileSize > 0 {
		cfg.TileSize = *tileSize
	}
	if *overlap >= 0 {
		cfg.Overlap = *overlap
	}
	if *colorCSV != "" {
		cfg.ColorCSV = *colorCSV
	}

	rep := progress.NewConsole(os.Stdout)

	src, err := raster.Open(*rasterPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening raster: %v\n", err)
		os.Exit(1)
	}
	width, height := src.Size()
	rep.Infof("raster %s: %dx%d pixels", *rasterPath, width, height)

	tiles, err := raster.ExtractTiles(src, *rasterPath, cfg.TileSize, cfg.Overlap, rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting tiles: %v\n", err)
		os.Exit(1)
	}
	rep.Infof("extracted %d tiles", len(tiles))

	protos, err := prototype.Load(*protoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prototypes: %v\n", err)
		os.Exit(1)
	}
	rep.Infof("loaded %d prototypes", len(protos))

	client, err := clip.NewClient(clip.Config{
		BaseURL:   cfg.Service.BaseURL,
		Model:     cfg.Service.Model,
		APIKeyEnv: cfg.Service.APIKeyEnv,
		Timeout:   cfg.Service.Timeout(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating embedding client: %v\n", err)
		os.Exit(1)
	}

	images := make([]image.Image, len(tiles))
	for i, t := range tiles {
		images[i] = t.Image
	}
	vecs, err := embedding.EmbedBatches(context.Background(), client, images, cfg.BatchSize, rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error embedding tiles: %v\n", err)
		os.Exit(1)
	}

	results, err := classify.Classify(vecs, protos)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error classifying tiles: %v\n", err)
		os.Exit(1)
	}

	if err := sink.WriteResultsCSV(*outPath, tiles, results); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}
	rep.Infof("wrote %d results to %s", len(results), *outPath)

	var cells []grid.Cell
	if *detailed {
		cells, err = grid.DetailedCells(tiles, results)
	} else {
		cells, err = grid.Reconstruct(tiles, results)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconstructing grid: %v\n", err)
		os.Exit(1)
	}

	classes := distinctClasses(results)
	var overrides map[string]string
	if cfg.ColorCSV != "" {
		overrides, err = palette.LoadOverrides(cfg.ColorCSV)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading color table: %v\n", err)
			os.Exit(1)
		}
	}
	pal := palette.Assign(classes, overrides)

	stem := strings.TrimSuffix(*outPath, ".csv")
	feats := sink.BuildFeatures(cells, tiles, pal)

	if !*noGeoJSON {
		path := stem + ".geojson"
		if err := sink.WriteGeoJSON(path, feats, src.CRS()); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing GeoJSON: %v\n", err)
			os.Exit(1)
		}
		rep.Infof("wrote %s", path)
	}
	if !*noShapefile {
		path := stem + ".shp"
		if err := sink.WriteShapefile(path, feats, src.CRS()); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing shapefile: %v\n", err)
			os.Exit(1)
		}
		if err := qgisstyle.WriteQML(stem+".qml", classes, pal); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing QGIS style: %v\n", err)
			os.Exit(1)
		}
		rep.Infof("wrote %s with QGIS style", path)
	}
	if *quicklook {
		path := stem + "_quicklook.png"
		if err := render.WriteQuicklook(path, cells, width, height, pal); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing quicklook: %v\n", err)
			os.Exit(1)
		}
		rep.Infof("wrote %s", path)
	}

	sink.ReportClassSummary(rep, results, pal)
}

func distinctClasses(results []classify.Result) []string {
	seen := make(map[string]struct{})
	var classes []string
	for _, r := range results {
		name := r.Class.String()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		classes = append(classes, name)
	}
	return classes
}
