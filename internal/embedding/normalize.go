package embedding

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// ErrZeroNorm is returned when a vector cannot be unit-normalized.
var ErrZeroNorm = errors.New("cannot normalize zero-norm vector")

// NormalizeInPlace scales v to unit Euclidean length. A zero vector is an
// error; NaNs are never silently propagated.
func NormalizeInPlace(v []float64) error {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return ErrZeroNorm
	}
	floats.Scale(1/norm, v)
	return nil
}

// Normalized returns a unit-length copy of v.
func Normalized(v []float64) ([]float64, error) {
	out := append([]float64(nil), v...)
	if err := NormalizeInPlace(out); err != nil {
		return nil, err
	}
	return out, nil
}
