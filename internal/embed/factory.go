package embed

import (
	"fmt"
	"log/slog"
	"time"
)

// Settings selects and configures an embedder.
type Settings struct {
	Provider  string // hash, openai, ollama
	Model     string
	BaseURL   string
	APIKey    string
	BatchSize int
	Dimension int
	Timeout   time.Duration
}

// New builds the configured embedder. Remote embedders are wrapped with
// Retry; when stats is non-nil every call is recorded into it.
func New(s Settings, stats *Stats, log *slog.Logger) (Embedder, error) {
	var base Embedder
	switch s.Provider {
	case "hash", "":
		base = NewHash(s.Dimension)
	case "openai":
		client, err := NewOpenAI(OpenAIConfig{
			APIKey:    s.APIKey,
			BaseURL:   s.BaseURL,
			Model:     s.Model,
			BatchSize: s.BatchSize,
			Timeout:   s.Timeout,
		})
		if err != nil {
			return nil, err
		}
		base = WithRetry(client, log)
	case "ollama":
		client, err := NewOllama(OllamaConfig{
			BaseURL:   s.BaseURL,
			Model:     s.Model,
			BatchSize: s.BatchSize,
			Timeout:   s.Timeout,
		})
		if err != nil {
			return nil, err
		}
		base = WithRetry(client, log)
	default:
		return nil, fmt.Errorf("unknown embedder: %s", s.Provider)
	}

	if stats != nil {
		return Instrument(base, stats), nil
	}
	return base, nil
}
