// Package config loads the application configuration from a YAML file,
// applying defaults for anything left unset.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures the Ollama embedding client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	MaxChars int `yaml:"max_chars"`
	RowBlock int `yaml:"row_block"`
}

// SearchConfig tunes the two retrieval paths: the low-latency context path
// used on a live turn and the fuller source digest.
type SearchConfig struct {
	ContextK int `yaml:"context_k"`
	AnswerK  int `yaml:"answer_k"`
}

// Config is the root application configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	DBPath   string         `yaml:"db_path"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Search   SearchConfig   `yaml:"search"`
}

// Load reads a config from the given path. A missing file is not an error;
// defaults are returned instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./gober.db"
	}
	if cfg.Embedder.BaseURL == "" {
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			cfg.Embedder.BaseURL = host
		} else {
			cfg.Embedder.BaseURL = "http://localhost:11434"
		}
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "paraphrase-multilingual"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 768
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 120
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Chunker.MaxChars == 0 {
		cfg.Chunker.MaxChars = 1000
	}
	if cfg.Chunker.RowBlock == 0 {
		cfg.Chunker.RowBlock = 50
	}
	if cfg.Search.ContextK == 0 {
		cfg.Search.ContextK = 2
	}
	if cfg.Search.AnswerK == 0 {
		cfg.Search.AnswerK = 5
	}
}
