package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/flarexio/linesim/embedding"
)

// Client embeds text with the OpenAI embeddings API, one input per request.
type Client struct {
	client *openai.Client
	cfg    embedding.Config
	log    *zap.Logger
}

func NewClient(cfg embedding.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is required", embedding.ErrAuthentication)
	}

	cfg.ApplyDefaults()

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	log := zap.L().With(
		zap.String("component", "embedding"),
		zap.String("model", cfg.Model),
	)

	return &Client{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		log:    log,
	}, nil
}

func (c *Client) Model() string {
	return c.cfg.Model
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyText
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := embedding.Backoff(c.cfg.RetryDelay, attempt)

			c.log.Warn("retrying embedding request",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			if err := embedding.Sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %w", embedding.ErrProvider, err)
			}
		}

		vector, err := c.embed(ctx, text)
		if err == nil {
			return vector, nil
		}

		if errors.Is(err, embedding.ErrAuthentication) {
			return nil, err
		}

		lastErr = err
	}

	return nil, fmt.Errorf("after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.cfg.Model),
	})

	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embedding.ErrProvider)
	}

	vector := resp.Data[0].Embedding
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", embedding.ErrProvider)
	}

	return vector, nil
}

func classify(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", embedding.ErrAuthentication, err)
	default:
		return fmt.Errorf("%w: %w", embedding.ErrProvider, err)
	}
}
