package prototype

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"habitat-mapper/internal/classname"
)

// filePrefix marks prototype files so a directory can hold other artifacts
// (summaries, logs) without confusing the loader.
const filePrefix = "query_"

type prototypeFile struct {
	ClassName     string    `json:"class_name"`
	Vector        []float64 `json:"vector"`
	Method        string    `json:"method"`
	NumEmbeddings int       `json:"num_embeddings"`
}

// Save writes one prototype into dir as query_<token>.json, where the token
// is the class's filesystem-safe name. Returns the written path.
func Save(dir string, p Prototype) (string, error) {
	path := filepath.Join(dir, filePrefix+p.Class.FileToken()+".json")
	data, err := json.MarshalIndent(prototypeFile{
		ClassName:     p.Class.String(),
		Vector:        p.Vector,
		Method:        string(p.Method),
		NumEmbeddings: p.SourceCount,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prototype for %q: %w", p.Class.String(), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write prototype: %w", err)
	}
	return path, nil
}

// SaveAll writes every prototype into dir, creating it if needed.
func SaveAll(dir string, protos []Prototype) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create prototype directory: %w", err)
	}
	for _, p := range protos {
		if _, err := Save(dir, p); err != nil {
			return err
		}
	}
	return nil
}

// Load reads prototypes from path. A single JSON file yields one prototype;
// a directory yields every query_*.json inside it, sorted by filename so the
// classifier sees a stable prototype ordering.
func Load(path string) ([]Prototype, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prototypes: %w", err)
	}
	if !info.IsDir() {
		p, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		return []Prototype{p}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, filePrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan prototype directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no prototype files in %s", path)
	}
	sort.Strings(matches)

	protos := make([]Prototype, 0, len(matches))
	for _, m := range matches {
		p, err := loadFile(m)
		if err != nil {
			return nil, err
		}
		protos = append(protos, p)
	}
	return protos, nil
}

func loadFile(path string) (Prototype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prototype{}, fmt.Errorf("failed to read prototype: %w", err)
	}
	var pf prototypeFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return Prototype{}, fmt.Errorf("unmarshal prototype %s: %w", path, err)
	}
	class := classname.Parse(pf.ClassName)
	if len(class) == 0 {
		// Older files carried only the filename token.
		token := filepath.Base(path)
		token = token[len(filePrefix) : len(token)-len(".json")]
		class = classname.FromFileToken(token)
	}
	if len(pf.Vector) == 0 {
		return Prototype{}, fmt.Errorf("prototype %s has an empty vector", path)
	}
	return Prototype{
		Class:       class,
		Vector:      pf.Vector,
		Method:      Method(pf.Method),
		SourceCount: pf.NumEmbeddings,
	}, nil
}

// WriteSummaryCSV writes a one-row-per-class overview next to the prototype
// files.
func WriteSummaryCSV(path string, protos []Prototype) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"class_name", "method", "num_embeddings", "dimension"}); err != nil {
		return err
	}
	for _, p := range protos {
		row := []string{
			p.Class.String(),
			string(p.Method),
			strconv.Itoa(p.SourceCount),
			strconv.Itoa(len(p.Vector)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
