// Command makeproto aggregates labeled embedding records into one prototype
// vector per class and writes them as query_<class>.json files plus a
// summary CSV.
//
// Usage: makeproto -embeddings embeddings.json -out prototypes/ [-method centroid]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"habitat-mapper/internal/config"
	"habitat-mapper/internal/embedding"
	"habitat-mapper/internal/progress"
	"habitat-mapper/internal/prototype"
)

func main() {
	embPath := flag.String("embeddings", "", "Labeled embedding records JSON")
	outDir := flag.String("out", "prototypes", "Output directory for prototype files")
	configPath := flag.String("config", "", "YAML config file")
	methodFlag := flag.String("method", "", "Aggregation method: mean, median, or centroid (overrides config)")
	flag.Parse()

	if *embPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: makeproto -embeddings embeddings.json -out prototypes/ [-method centroid]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	methodName := cfg.Method
	if *methodFlag != "" {
		methodName = *methodFlag
	}
	method, err := prototype.ParseMethod(methodName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rep := progress.NewConsole(os.Stdout)

	records, err := embedding.LoadRecords(*embPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading embeddings: %v\n", err)
		os.Exit(1)
	}
	byClass := embedding.GroupByClass(records)
	rep.Infof("loaded %d records across %d classes", len(records), len(byClass))

	protos, err := prototype.BuildAll(byClass, method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building prototypes: %v\n", err)
		os.Exit(1)
	}

	if err := prototype.SaveAll(*outDir, protos); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving prototypes: %v\n", err)
		os.Exit(1)
	}
	summaryPath := filepath.Join(*outDir, "prototype_summary.csv")
	if err := prototype.WriteSummaryCSV(summaryPath, protos); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing summary: %v\n", err)
		os.Exit(1)
	}

	for _, p := range protos {
		rep.Infof("%s: %s over %d embeddings", p.Class.String(), p.Method, p.SourceCount)
	}
	rep.Infof("wrote %d prototypes to %s", len(protos), *outDir)
}
