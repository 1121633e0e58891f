package embedding

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"habitat-mapper/internal/classname"
)

// Record is one labeled crop with its embeddings: the unit of the reference
// embedding set built from an annotated dataset and consumed by the
// prototype builder.
type Record struct {
	Image          string    `json:"image"`
	ObjectID       int       `json:"object_id"`
	ClassID        int       `json:"class_id"`
	ClassName      string    `json:"class_name"`
	BBox           [4]int    `json:"bbox"` // x1, y1, x2, y2 in image pixels
	ImageEmbedding []float64 `json:"image_embedding"`
	TextEmbedding  []float64 `json:"text_embedding"`
}

// Class returns the record's hierarchical class path.
func (r Record) Class() classname.Path {
	return classname.Parse(r.ClassName)
}

// SaveRecords writes the embedding records to a JSON file.
func SaveRecords(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal embedding records: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadRecords reads embedding records from a JSON file.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal embedding records: %w", err)
	}
	return records, nil
}

// WriteRecordsCSV writes a human-readable companion CSV without the vectors.
func WriteRecordsCSV(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"image", "object_id", "class_id", "class_name", "x1", "y1", "x2", "y2"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Image,
			strconv.Itoa(r.ObjectID),
			strconv.Itoa(r.ClassID),
			r.ClassName,
			strconv.Itoa(r.BBox[0]),
			strconv.Itoa(r.BBox[1]),
			strconv.Itoa(r.BBox[2]),
			strconv.Itoa(r.BBox[3]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// GroupByClass collects image embeddings by class name string.
func GroupByClass(records []Record) map[string][][]float64 {
	byClass := make(map[string][][]float64)
	for _, r := range records {
		byClass[r.ClassName] = append(byClass[r.ClassName], r.ImageEmbedding)
	}
	return byClass
}
