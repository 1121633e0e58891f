// Package config loads pipeline configuration from YAML with sane defaults,
// so the CLIs work out of the box and a config file only overrides what it
// names.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Service configures the embedding service client.
type Service struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the request timeout as a duration.
func (s Service) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// App is the top-level pipeline configuration.
type App struct {
	TileSize  int     `yaml:"tile_size"`
	Overlap   int     `yaml:"overlap"`
	BatchSize int     `yaml:"batch_size"`
	Method    string  `yaml:"method"`
	ColorCSV  string  `yaml:"color_csv"`
	Service   Service `yaml:"service"`
}

// Default returns the configuration used when no file is given.
func Default() App {
	return App{
		TileSize:  224,
		Overlap:   0,
		BatchSize: 32,
		Method:    "centroid",
		Service: Service{
			Model:       "ViT-B-32",
			APIKeyEnv:   "EMBED_API_KEY",
			TimeoutSecs: 60,
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (App, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return App{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return App{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return App{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c App) validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile_size must be positive, got %d", c.TileSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.TileSize {
		return fmt.Errorf("overlap must be in [0,%d), got %d", c.TileSize, c.Overlap)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}
