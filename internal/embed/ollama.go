package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	BaseURL   string // Defaults to http://localhost:11434
	Model     string
	BatchSize int
	Timeout   time.Duration
}

// Ollama encodes text with a locally served embedding model.
type Ollama struct {
	client    *api.Client
	model     string
	batchSize int
}

// NewOllama creates a client for the Ollama /api/embed endpoint.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: parse base url: %w", err)
	}
	return &Ollama{
		client:    api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}, nil
}

func (e *Ollama) Model() string { return e.model }

func (e *Ollama) Encode(ctx context.Context, text string) (Vector, error) {
	return encodeOne(ctx, e, text)
}

func (e *Ollama) EncodeBatch(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, 0, len(texts))
	texts = clipAll(texts, DefaultMaxInputTokens)
	for _, batch := range batches(texts, e.batchSize) {
		resp, err := e.client.Embed(ctx, &api.EmbedRequest{
			Model: e.model,
			Input: batch,
		})
		if err != nil {
			return nil, classifyOllamaError(err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("ollama embed: expected %d vectors, got %d", len(batch), len(resp.Embeddings))
		}
		for _, emb := range resp.Embeddings {
			out = append(out, Vector(emb))
		}
	}
	return out, nil
}

func classifyOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && isRetryableStatus(statusErr.StatusCode) {
		return &RetryableError{StatusCode: statusErr.StatusCode, Message: statusErr.ErrorMessage}
	}
	return fmt.Errorf("ollama embed: %w", err)
}
