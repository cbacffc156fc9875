package embedding

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

var (
	ErrAuthentication = errors.New("embedding provider authentication failed")
	ErrProvider       = errors.New("embedding provider error")
	ErrEmptyText      = errors.New("text to embed is empty")
)

const DefaultModel = "text-embedding-3-small"

type Config struct {
	APIKey     string        `yaml:"-"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"baseURL"`
	MaxRetries int           `yaml:"maxRetries"`
	RetryDelay time.Duration `yaml:"retryDelay"`
	Timeout    time.Duration `yaml:"timeout"`
}

func (cfg *Config) ApplyDefaults() {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

// Embedder turns one text into one vector. Implementations make a single
// provider call per request and report failures as ErrProvider or ErrAuthentication.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Backoff returns an exponential delay for the given attempt with ±25% jitter,
// capped at 30 seconds.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}

	if attempt > 30 {
		attempt = 30
	}

	backoff := base * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second || backoff <= 0 {
		backoff = 30 * time.Second
	}

	jitter := time.Duration(rand.Int64N(int64(backoff)/2+1)) - backoff/4
	return backoff + jitter
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
