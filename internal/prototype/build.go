// Package prototype builds and persists per-class prototype vectors from
// labeled embeddings.
package prototype

import (
	"errors"
	"fmt"
	"sort"

	"habitat-mapper/internal/classname"
	"habitat-mapper/internal/embedding"

	"gonum.org/v1/gonum/floats"
)

// Method selects how a class's embeddings are aggregated into one vector.
type Method string

const (
	// MethodMean is the element-wise arithmetic mean, not renormalized.
	MethodMean Method = "mean"
	// MethodMedian is the element-wise median, not renormalized.
	MethodMedian Method = "median"
	// MethodCentroid normalizes every embedding, averages, then
	// renormalizes the result to unit length.
	MethodCentroid Method = "centroid"
)

// ParseMethod validates an aggregation method string.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodMean, MethodMedian, MethodCentroid:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown aggregation method %q (use mean, median, or centroid)", s)
	}
}

// ErrClassNotFound is returned when a class has no embeddings to aggregate.
var ErrClassNotFound = errors.New("class not found")

// Prototype is one class's representative vector, with provenance for
// debugging: the method used and how many embeddings fed it.
type Prototype struct {
	Class       classname.Path
	Vector      []float64
	Method      Method
	SourceCount int
}

// Build aggregates a class's embeddings into a prototype.
func Build(class classname.Path, embeddings [][]float64, method Method) (Prototype, error) {
	if len(embeddings) == 0 {
		return Prototype{}, fmt.Errorf("%w: no embeddings for class %q", ErrClassNotFound, class.String())
	}
	dim := len(embeddings[0])
	for i, e := range embeddings {
		if len(e) != dim {
			return Prototype{}, fmt.Errorf("embedding %d for class %q has dimension %d, expected %d",
				i, class.String(), len(e), dim)
		}
	}

	var vector []float64
	var err error
	switch method {
	case MethodMean:
		vector = meanVector(embeddings)
	case MethodMedian:
		vector = medianVector(embeddings)
	case MethodCentroid:
		vector, err = centroidVector(embeddings)
		if err != nil {
			return Prototype{}, fmt.Errorf("centroid for class %q: %w", class.String(), err)
		}
	default:
		return Prototype{}, fmt.Errorf("unknown aggregation method %q", method)
	}

	return Prototype{
		Class:       class,
		Vector:      vector,
		Method:      method,
		SourceCount: len(embeddings),
	}, nil
}

// BuildAll aggregates every class in the map, returning prototypes sorted
// alphabetically by class name so repeated runs produce identical ordering.
func BuildAll(byClass map[string][][]float64, method Method) ([]Prototype, error) {
	names := make([]string, 0, len(byClass))
	for name := range byClass {
		names = append(names, name)
	}
	sort.Strings(names)

	protos := make([]Prototype, 0, len(names))
	for _, name := range names {
		p, err := Build(classname.Parse(name), byClass[name], method)
		if err != nil {
			return nil, err
		}
		protos = append(protos, p)
	}
	return protos, nil
}

func meanVector(embeddings [][]float64) []float64 {
	mean := make([]float64, len(embeddings[0]))
	for _, e := range embeddings {
		floats.Add(mean, e)
	}
	floats.Scale(1/float64(len(embeddings)), mean)
	return mean
}

func medianVector(embeddings [][]float64) []float64 {
	dim := len(embeddings[0])
	median := make([]float64, dim)
	column := make([]float64, len(embeddings))
	for d := 0; d < dim; d++ {
		for i, e := range embeddings {
			column[i] = e[d]
		}
		sort.Float64s(column)
		mid := len(column) / 2
		if len(column)%2 == 1 {
			median[d] = column[mid]
		} else {
			median[d] = (column[mid-1] + column[mid]) / 2
		}
	}
	return median
}

func centroidVector(embeddings [][]float64) ([]float64, error) {
	normalized := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		n, err := embedding.Normalized(e)
		if err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
		normalized[i] = n
	}
	centroid := meanVector(normalized)
	if err := embedding.NormalizeInPlace(centroid); err != nil {
		return nil, err
	}
	return centroid, nil
}
