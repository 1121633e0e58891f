// Package embedding provides the embedding model contract, the batched
// embedding runner, and persistence for labeled-crop embeddings.
package embedding

import (
	"context"
	"image"
)

// Model is the opaque embedding model: it maps images and texts into the
// same fixed-dimensional vector space. Implementations are free to batch
// internally; the pipeline only relies on one output vector per input, in
// input order.
type Model interface {
	// Dimension returns the model's output width, or 0 if not yet known.
	Dimension() int
	// EmbedImages returns one vector per image, in order.
	EmbedImages(ctx context.Context, imgs []image.Image) ([][]float64, error)
	// EmbedTexts returns one vector per text, in order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}
