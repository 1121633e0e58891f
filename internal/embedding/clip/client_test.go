package clip

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
)

type embedRequest struct {
	Model  string   `json:"model"`
	Images []string `json:"images"`
	Texts  []string `json:"texts"`
}

// fakeService answers both endpoints with dim-wide vectors and records the
// last request.
func fakeService(t *testing.T, dim int, last *embedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*last = req

		n := len(req.Images)
		if r.URL.Path == "/embeddings/text" {
			n = len(req.Texts)
		}
		type item struct {
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, n)
		for i := range data {
			v := make([]float64, dim)
			v[i%dim] = 1
			data[i] = item{Embedding: v}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("empty base URL accepted")
	}
}

func TestNewClientMissingAPIKey(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "http://x", APIKeyEnv: "HABITAT_MAPPER_UNSET_KEY"}); err == nil {
		t.Fatal("missing API key accepted")
	}
}

func TestEmbedImages(t *testing.T) {
	t.Parallel()

	var last embedRequest
	srv := fakeService(t, 4, &last)
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "ViT-L-14"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	imgs := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 8, 8)),
		image.NewRGBA(image.Rect(0, 0, 8, 8)),
	}
	vecs, err := c.EmbedImages(context.Background(), imgs)
	if err != nil {
		t.Fatalf("EmbedImages: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 4 {
		t.Fatalf("got %dx%d vectors", len(vecs), len(vecs[0]))
	}
	if c.Dimension() != 4 {
		t.Errorf("dimension %d, want 4", c.Dimension())
	}
	if last.Model != "ViT-L-14" || len(last.Images) != 2 {
		t.Errorf("request carried model %q with %d images", last.Model, len(last.Images))
	}
	if last.Images[0] == "" {
		t.Error("image payload empty")
	}
}

func TestEmbedTexts(t *testing.T) {
	t.Parallel()

	var last embedRequest
	srv := fakeService(t, 3, &last)
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	vecs, err := c.EmbedTexts(context.Background(), []string{"forest", "water"})
	if err != nil {
		t.Fatalf("EmbedTexts: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	if len(last.Texts) != 2 || last.Texts[0] != "forest" {
		t.Errorf("request texts %v", last.Texts)
	}
}

func TestEmbedImagesCountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{1, 0}}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	imgs := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
		image.NewRGBA(image.Rect(0, 0, 2, 2)),
	}
	if _, err := c.EmbedImages(context.Background(), imgs); err == nil {
		t.Fatal("count mismatch accepted")
	}
}

func TestEmbedImagesServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.EmbedImages(context.Background(), []image.Image{image.NewRGBA(image.Rect(0, 0, 1, 1))}); err == nil {
		t.Fatal("server error not propagated")
	}
}
