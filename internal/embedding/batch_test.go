package embedding

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"habitat-mapper/internal/progress"
)

// fakeModel hashes the mean brightness of each input into a deterministic
// vector so outputs are comparable across batch sizes.
type fakeModel struct {
	dim      int
	batches  [][]image.Image
	failWith error
}

func (m *fakeModel) Dimension() int { return m.dim }

func (m *fakeModel) EmbedImages(_ context.Context, imgs []image.Image) ([][]float64, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.batches = append(m.batches, imgs)
	out := make([][]float64, len(imgs))
	for i, img := range imgs {
		v := make([]float64, m.dim)
		mean := meanBrightness(img)
		for d := range v {
			v[d] = mean + float64(d)
		}
		out[i] = v
	}
	return out, nil
}

func (m *fakeModel) EmbedTexts(context.Context, []string) ([][]float64, error) {
	return nil, errors.New("not implemented")
}

func meanBrightness(img image.Image) float64 {
	bounds := img.Bounds()
	var sum, n float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 16 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 16 {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += float64(r + g + b)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func grayImage(level uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = level
		img.Pix[i+1] = level
		img.Pix[i+2] = level
		img.Pix[i+3] = 255
	}
	return img
}

func TestEmbedBatchesOutputsAreUnitLength(t *testing.T) {
	t.Parallel()

	inputs := []image.Image{grayImage(10), grayImage(100), grayImage(200)}
	vecs, err := EmbedBatches(context.Background(), &fakeModel{dim: 8}, inputs, 2, progress.Nop{})
	if err != nil {
		t.Fatalf("EmbedBatches: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	for i, v := range vecs {
		var norm float64
		for _, x := range v {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("vector %d has norm %f, want 1", i, norm)
		}
	}
}

func TestEmbedBatchesBatchSizeInvariance(t *testing.T) {
	t.Parallel()

	inputs := []image.Image{grayImage(10), grayImage(60), grayImage(120), grayImage(180), grayImage(250)}

	var baseline [][]float64
	for _, batchSize := range []int{1, 2, 5, 16} {
		vecs, err := EmbedBatches(context.Background(), &fakeModel{dim: 6}, inputs, batchSize, progress.Nop{})
		if err != nil {
			t.Fatalf("batch size %d: %v", batchSize, err)
		}
		if baseline == nil {
			baseline = vecs
			continue
		}
		for i := range vecs {
			for d := range vecs[i] {
				if math.Abs(vecs[i][d]-baseline[i][d]) > 1e-12 {
					t.Fatalf("batch size %d changed vector %d component %d", batchSize, i, d)
				}
			}
		}
	}
}

func TestEmbedBatchesSubstitutesPlaceholderForNil(t *testing.T) {
	t.Parallel()

	model := &fakeModel{dim: 4}
	inputs := []image.Image{grayImage(50), nil, grayImage(50)}
	vecs, err := EmbedBatches(context.Background(), model, inputs, 8, progress.Nop{})
	if err != nil {
		t.Fatalf("EmbedBatches: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	if model.batches[0][1] == nil {
		t.Fatal("nil input reached the model")
	}
	b := model.batches[0][1].Bounds()
	if b.Dx() != placeholderSize || b.Dy() != placeholderSize {
		t.Errorf("placeholder is %dx%d, want %dx%d", b.Dx(), b.Dy(), placeholderSize, placeholderSize)
	}
}

func TestEmbedBatchesRejectsInvalidBatchSize(t *testing.T) {
	t.Parallel()

	_, err := EmbedBatches(context.Background(), &fakeModel{dim: 4}, nil, 0, progress.Nop{})
	if err == nil {
		t.Fatal("batch size 0 accepted")
	}
}

func TestEmbedBatchesPropagatesModelError(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("service unavailable")
	_, err := EmbedBatches(context.Background(), &fakeModel{dim: 4, failWith: wantErr},
		[]image.Image{grayImage(1)}, 1, progress.Nop{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want wrapped %v", err, wantErr)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	t.Parallel()

	if err := NormalizeInPlace(make([]float64, 4)); !errors.Is(err, ErrZeroNorm) {
		t.Fatalf("got %v, want ErrZeroNorm", err)
	}
}
