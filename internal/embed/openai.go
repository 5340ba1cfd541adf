package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string // Empty for api.openai.com
	Model     string
	BatchSize int
	Timeout   time.Duration
}

// OpenAI encodes text through an OpenAI-compatible /embeddings API.
type OpenAI struct {
	client    *openai.Client
	model     string
	batchSize int
}

// NewOpenAI creates an embeddings client.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 16
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}, nil
}

func (e *OpenAI) Model() string { return e.model }

func (e *OpenAI) Encode(ctx context.Context, text string) (Vector, error) {
	return encodeOne(ctx, e, text)
}

func (e *OpenAI) EncodeBatch(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, 0, len(texts))
	texts = clipAll(texts, DefaultMaxInputTokens)
	for _, batch := range batches(texts, e.batchSize) {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, classifyOpenAIError(err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(batch), len(resp.Data))
		}

		// Responses carry an index; do not rely on arrival order.
		vecs := make([]Vector, len(batch))
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(vecs) {
				return nil, fmt.Errorf("openai embeddings: index %d out of range", item.Index)
			}
			vecs[item.Index] = Vector(item.Embedding)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && isRetryableStatus(apiErr.HTTPStatusCode) {
		return &RetryableError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && isRetryableStatus(reqErr.HTTPStatusCode) {
		return &RetryableError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("openai embeddings: %w", err)
}
