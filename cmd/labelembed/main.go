// Command labelembed encodes a YOLO-annotated image dataset into labeled
// embedding records. Each bounding box crop is embedded through the embedding
// service along with a text prompt for its class, and the records are saved
// as JSON (plus a vector-free CSV for inspection).
//
// Usage: labelembed -dataset <dir> -url <embedding-service> [-out embeddings.json]
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"habitat-mapper/internal/classname"
	"habitat-mapper/internal/config"
	"habitat-mapper/internal/dataset"
	"habitat-mapper/internal/embedding"
	"habitat-mapper/internal/embedding/clip"
	"habitat-mapper/internal/progress"
)

func main() {
	datasetDir := flag.String("dataset", "", "Dataset root with images/, labels/, classes.txt")
	outPath := flag.String("out", "embeddings.json", "Output JSON file")
	configPath := flag.String("config", "", "YAML config file")
	baseURL := flag.String("url", "", "Embedding service base URL (overrides config)")
	promptTemplate := flag.String("prompt", "", "Text prompt template, {class} is replaced by the class name")
	flag.Parse()

	if *datasetDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: labelembed -dataset <dir> -url <embedding-service> [-out embeddings.json]")
		os.Exit(1)
	}

	// Optional .env for the service API key.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Service.BaseURL = *baseURL
	}

	rep := progress.NewConsole(os.Stdout)

	classes, err := dataset.LoadClasses(filepath.Join(*datasetDir, "classes.txt"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading classes: %v\n", err)
		os.Exit(1)
	}
	rep.Infof("loaded %d classes", len(classes))

	crops, err := dataset.CollectCrops(*datasetDir, classes, rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error collecting crops: %v\n", err)
		os.Exit(1)
	}
	rep.Infof("collected %d crops", len(crops))

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

	ctx := context.Background()

	images := make([]image.Image, len(crops))
	for i, c := range crops {
		images[i] = c.Image
	}
	imageVecs, err := embedding.EmbedBatches(ctx, client, images, cfg.BatchSize, rep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error embedding crops: %v\n", err)
		os.Exit(1)
	}

	// One text embedding per class, shared by all crops of that class.
	prompts := make([]string, len(classes))
	for i, name := range classes {
		prompts[i] = classname.Parse(name).Prompt(*promptTemplate)
	}
	rep.Infof("embedding %d class prompts", len(prompts))
	textVecs, err := client.EmbedTexts(ctx, prompts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error embedding prompts: %v\n", err)
		os.Exit(1)
	}
	for i := range textVecs {
		if err := embedding.NormalizeInPlace(textVecs[i]); err != nil {
			fmt.Fprintf(os.Stderr, "Error normalizing prompt embedding %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	records := make([]embedding.Record, len(crops))
	for i, c := range crops {
		records[i] = embedding.Record{
			Image:          c.ImagePath,
			ObjectID:       c.ObjectID,
			ClassID:        c.ClassID,
			ClassName:      c.ClassName,
			BBox:           c.BBox,
			ImageEmbedding: imageVecs[i],
			TextEmbedding:  textVecs[c.ClassID],
		}
	}

	if err := embedding.SaveRecords(*outPath, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving records: %v\n", err)
		os.Exit(1)
	}
	csvPath := strings.TrimSuffix(*outPath, ".json") + ".csv"
	if err := embedding.WriteRecordsCSV(csvPath, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		os.Exit(1)
	}

	rep.Infof("wrote %d records to %s", len(records), *outPath)
}
