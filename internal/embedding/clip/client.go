// Package clip is an HTTP client for a CLIP embedding service speaking an
// OpenAI-style JSON protocol. Images travel as base64 PNG; texts as plain
// strings. The pipeline only depends on the embedding.Model interface this
// client implements.
package clip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"time"
)

// Config configures the CLIP service client.
type Config struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
	Timeout   time.Duration
}

// Client calls a remote CLIP embedding service.
type Client struct {
	baseURL   string
	model     string
	apiKey    string
	client    *http.Client
	dimension int
}

// NewClient creates a CLIP service client from the configuration. The API
// key is optional; when APIKeyEnv is set the variable must be present.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("clip service base URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = "ViT-B-32"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
		}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  key,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Dimension returns the service's output width, learned from the first
// response.
func (c *Client) Dimension() int { return c.dimension }

// EmbedImages returns one vector per image, in order. An image that fails
// PNG encoding is replaced by a deterministic blank so positions in the
// response stay aligned with the inputs.
func (c *Client) EmbedImages(ctx context.Context, imgs []image.Image) ([][]float64, error) {
	encoded := make([]string, len(imgs))
	for i, img := range imgs {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			blank := image.NewRGBA(image.Rect(0, 0, 1, 1))
			buf.Reset()
			png.Encode(&buf, blank)
		}
		encoded[i] = base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	body := struct {
		Model  string   `json:"model"`
		Images []string `json:"images"`
	}{Model: c.model, Images: encoded}

	return c.post(ctx, "/embeddings/image", body, len(imgs))
}

// EmbedTexts returns one vector per text, in order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	body := struct {
		Model string   `json:"model"`
		Texts []string `json:"texts"`
	}{Model: c.model, Texts: texts}

	return c.post(ctx, "/embeddings/text", body, len(texts))
}

func (c *Client) post(ctx context.Context, endpoint string, body any, want int) ([][]float64, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clip service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("clip service returned %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read clip response: %w", err)
	}

	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("parse clip response: %w", err)
	}
	if len(out.Data) != want {
		return nil, fmt.Errorf("clip service returned %d embeddings for %d inputs", len(out.Data), want)
	}

	vectors := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("clip service returned empty embedding at index %d", i)
		}
		if c.dimension == 0 {
			c.dimension = len(d.Embedding)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
