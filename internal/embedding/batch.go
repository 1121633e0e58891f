package embedding

import (
	"context"
	"fmt"
	"image"

	"habitat-mapper/internal/progress"
)

// placeholderSize is the edge length of the neutral image substituted for
// items that failed to load or convert.
const placeholderSize = 224

// EmbedBatches embeds the inputs in order using batches of at most batchSize
// items. A nil input marks an item that failed upstream conversion; it is
// replaced by a neutral black placeholder so output indices stay aligned
// with the caller's metadata. Every output vector is unit-normalized.
//
// Batching is purely a throughput concern: the output is identical for any
// batch size.
func EmbedBatches(ctx context.Context, model Model, inputs []image.Image, batchSize int, rep progress.Reporter) ([][]float64, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", batchSize)
	}

	totalBatches := (len(inputs) + batchSize - 1) / batchSize
	rep.StartStage("embedding batches", totalBatches)
	defer rep.EndStage()

	vectors := make([][]float64, 0, len(inputs))
	dim := 0
	for start := 0; start < len(inputs); start += batchSize {
		end := start + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		batch := make([]image.Image, end-start)
		for i, img := range inputs[start:end] {
			if img == nil {
				rep.Warnf("input %d failed conversion, substituting placeholder", start+i)
				img = neutralImage()
			}
			batch[i] = img
		}

		out, err := model.EmbedImages(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed batch starting at %d: %w", start, err)
		}
		if len(out) != len(batch) {
			return nil, fmt.Errorf("model returned %d vectors for %d inputs", len(out), len(batch))
		}

		for i, v := range out {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) != dim {
				return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", start+i, len(v), dim)
			}
			if err := NormalizeInPlace(v); err != nil {
				return nil, fmt.Errorf("normalize embedding %d: %w", start+i, err)
			}
			vectors = append(vectors, v)
		}
		rep.Advance()
	}

	return vectors, nil
}

// neutralImage returns the all-black placeholder used for failed inputs.
func neutralImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
}
