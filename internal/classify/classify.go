// Package classify assigns every tile embedding to its nearest prototype by
// cosine similarity.
package classify

import (
	"errors"
	"fmt"

	"habitat-mapper/internal/classname"
	"habitat-mapper/internal/embedding"
	"habitat-mapper/internal/prototype"

	"gonum.org/v1/gonum/mat"
)

// ErrNoPrototypes is returned when classification is attempted with an empty
// prototype set.
var ErrNoPrototypes = errors.New("no prototypes to classify against")

// Result is one tile's assignment. TileID indexes into the embedding slice
// passed to Classify, which matches the tile slice it was embedded from.
type Result struct {
	TileID     int
	Class      classname.Path
	Similarity float64
}

// Classify computes the cosine similarity of every embedding against every
// prototype and assigns each embedding to its best match. Every embedding
// receives exactly one result; ties break toward the prototype that sorts
// first. Prototypes are unit-normalized on private copies before the
// similarity product, so stored vectors built with mean or median aggregation
// still yield true cosine values.
func Classify(embeddings [][]float64, protos []prototype.Prototype) ([]Result, error) {
	if len(protos) == 0 {
		return nil, ErrNoPrototypes
	}
	if len(embeddings) == 0 {
		return nil, nil
	}

	dim := len(embeddings[0])
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(e), dim)
		}
	}

	// Prototype matrix P is m x d with unit rows.
	pdata := make([]float64, 0, len(protos)*dim)
	for _, p := range protos {
		if len(p.Vector) != dim {
			return nil, fmt.Errorf("prototype %q has dimension %d, expected %d",
				p.Class.String(), len(p.Vector), dim)
		}
		unit, err := embedding.Normalized(p.Vector)
		if err != nil {
			return nil, fmt.Errorf("prototype %q: %w", p.Class.String(), err)
		}
		pdata = append(pdata, unit...)
	}
	pm := mat.NewDense(len(protos), dim, pdata)

	edata := make([]float64, 0, len(embeddings)*dim)
	for _, e := range embeddings {
		edata = append(edata, e...)
	}
	em := mat.NewDense(len(embeddings), dim, edata)

	// Similarity matrix S = E * P^T is n x m.
	var sim mat.Dense
	sim.Mul(em, pm.T())

	results := make([]Result, len(embeddings))
	for i := range embeddings {
		row := sim.RawRowView(i)
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		results[i] = Result{
			TileID:     i,
			Class:      protos[best].Class,
			Similarity: row[best],
		}
	}
	return results, nil
}
