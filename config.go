package linesim

import (
	"fmt"

	"github.com/flarexio/linesim/embedding"
	"github.com/flarexio/linesim/vector"
)

const (
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvEmbeddingModel = "EMBEDDING_MODEL"
)

type Config struct {
	Inputs    InputConfig      `yaml:"inputs"`
	Rebuild   RebuildConfig    `yaml:"rebuild"`
	Embedding embedding.Config `yaml:"embedding"`
	Vector    vector.Config    `yaml:"vector"`
}

type InputConfig struct {
	// Root is the directory every input path is resolved against. Paths
	// must be relative and stay inside it.
	Root string `yaml:"root"`

	// Files are ingested in order before the comparison runs.
	Files []string `yaml:"files"`

	// Source provides the reference vector, Target is ranked against it.
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type RebuildConfig struct {
	// Enabled replaces incremental ingestion with drop-and-recreate.
	Enabled bool `yaml:"enabled"`

	// MaxLines limits how many lines a rebuild embeds; zero means all.
	MaxLines int `yaml:"maxLines"`
}

func (cfg *Config) ApplyDefaults() {
	cfg.Embedding.ApplyDefaults()

	if cfg.Inputs.Root == "" {
		cfg.Inputs.Root = "."
	}

	if cfg.Vector.Path == "" {
		cfg.Vector.Path = "chroma_db"
	}
}

// ApplyEnv reads the credential and the model override through lookup.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if key, ok := lookup(EnvAPIKey); ok {
		cfg.Embedding.APIKey = key
	}

	if model, ok := lookup(EnvEmbeddingModel); ok && model != "" {
		cfg.Embedding.Model = model
	}
}

func (cfg Config) Validate() error {
	if cfg.Embedding.APIKey == "" {
		return fmt.Errorf("%w: %s is not set", ErrConfiguration, EnvAPIKey)
	}

	if cfg.Embedding.MaxRetries < 0 {
		return fmt.Errorf("%w: embedding.maxRetries must not be negative", ErrConfiguration)
	}

	if cfg.Rebuild.MaxLines < 0 {
		return fmt.Errorf("%w: rebuild.maxLines must not be negative", ErrConfiguration)
	}

	return nil
}

// Inputs returns every file to ingest: the configured files followed by the
// source and target when they are not already listed.
func (cfg InputConfig) Inputs() []string {
	seen := make(map[string]bool)
	files := make([]string, 0, len(cfg.Files)+2)

	for _, f := range append(append([]string{}, cfg.Files...), cfg.Source, cfg.Target) {
		if f == "" || seen[f] {
			continue
		}

		seen[f] = true
		files = append(files, f)
	}

	return files
}
