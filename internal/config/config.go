package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/query"
)

const (
	DefaultTopLevelK = 5
	DefaultSubLevelK = 2
)

type Config struct {
	// Batch I/O
	InputDir     string `yaml:"input_dir"`
	OutputDir    string `yaml:"output_dir"`
	OutputFormat string `yaml:"output_format"`

	// Query
	Persona     query.Persona `yaml:"persona"`
	JobToBeDone string        `yaml:"job_to_be_done"`

	// Selection
	TopLevelK int `yaml:"top_level_k"`
	SubLevelK int `yaml:"sub_level_k"`

	// Embedding
	Embedder           string        `yaml:"embedder"`
	EmbeddingModel     string        `yaml:"embedding_model"`
	EmbeddingBaseURL   string        `yaml:"embedding_base_url"`
	EmbeddingAPIKey    string        `yaml:"-"`
	EmbeddingBatchSize int           `yaml:"embedding_batch_size"`
	EmbeddingDimension int           `yaml:"embedding_dimension"`
	EmbeddingTimeout   time.Duration `yaml:"embedding_timeout"`

	// Document pipelines run in parallel
	WorkerCount int `yaml:"worker_count"`
	// Queued runs processed at once by the HTTP service
	RunWorkers int `yaml:"run_workers"`

	// HTTP service
	Port           string        `yaml:"port"`
	APIKey         string        `yaml:"-"`
	MaxQueueSize   int           `yaml:"max_queue_size"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RunTTL         time.Duration `yaml:"run_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		InputDir:     "./input",
		OutputDir:    "./output",
		OutputFormat: "json",

		TopLevelK: DefaultTopLevelK,
		SubLevelK: DefaultSubLevelK,

		Embedder:           "hash",
		EmbeddingBatchSize: 16,
		EmbeddingDimension: 384,
		EmbeddingTimeout:   60 * time.Second,

		WorkerCount: 4,
		RunWorkers:  2,

		Port:           "8091",
		MaxQueueSize:   100,
		MaxUploadBytes: 52428800, // 50MB
		RunTTL:         1 * time.Hour,

		PDFFallbackPdftotext: true,
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.InputDir = envOr("DOCRANK_INPUT_DIR", cfg.InputDir)
	cfg.OutputDir = envOr("DOCRANK_OUTPUT_DIR", cfg.OutputDir)
	cfg.OutputFormat = envOr("DOCRANK_OUTPUT_FORMAT", cfg.OutputFormat)

	cfg.Persona.Role = envOr("PERSONA_ROLE", cfg.Persona.Role)
	cfg.Persona.Focus = envOr("PERSONA_FOCUS", cfg.Persona.Focus)
	cfg.JobToBeDone = envOr("JOB_TO_BE_DONE", cfg.JobToBeDone)

	cfg.TopLevelK = envInt("TOP_LEVEL_K", cfg.TopLevelK)
	cfg.SubLevelK = envInt("SUB_LEVEL_K", cfg.SubLevelK)

	cfg.Embedder = envOr("EMBEDDER", cfg.Embedder)
	cfg.EmbeddingModel = envOr("EMBEDDING_MODEL", cfg.EmbeddingModel)
	cfg.EmbeddingBaseURL = envOr("EMBEDDING_BASE_URL", cfg.EmbeddingBaseURL)
	cfg.EmbeddingAPIKey = envOr("OPENAI_API_KEY", cfg.EmbeddingAPIKey)
	cfg.EmbeddingBatchSize = envInt("EMBEDDING_BATCH_SIZE", cfg.EmbeddingBatchSize)
	cfg.EmbeddingDimension = envInt("EMBEDDING_DIMENSION", cfg.EmbeddingDimension)
	cfg.EmbeddingTimeout = envDuration("EMBEDDING_TIMEOUT", cfg.EmbeddingTimeout)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.RunWorkers = envInt("RUN_WORKERS", cfg.RunWorkers)

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("DOCRANK_API_KEY", cfg.APIKey)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.RunTTL = envDuration("RUN_TTL", cfg.RunTTL)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
}

func (c *Config) normalize() {
	d := Defaults()
	c.Embedder = strings.ToLower(strings.TrimSpace(c.Embedder))
	if c.Embedder == "" {
		c.Embedder = d.Embedder
	}
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	if c.OutputFormat == "" {
		c.OutputFormat = d.OutputFormat
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = defaultModel(c.Embedder, c.EmbeddingDimension)
	}

	if c.EmbeddingBatchSize <= 0 {
		c.EmbeddingBatchSize = d.EmbeddingBatchSize
	}
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = d.EmbeddingDimension
	}
	if c.EmbeddingTimeout <= 0 {
		c.EmbeddingTimeout = d.EmbeddingTimeout
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.RunWorkers <= 0 {
		c.RunWorkers = d.RunWorkers
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.RunTTL <= 0 {
		c.RunTTL = d.RunTTL
	}
}

func defaultModel(embedder string, dimension int) string {
	switch embedder {
	case "openai":
		return "text-embedding-3-small"
	case "ollama":
		return "nomic-embed-text"
	case "hash":
		if dimension <= 0 {
			dimension = 384
		}
		return fmt.Sprintf("hash-%d", dimension)
	}
	return ""
}

// Embedding returns the embedder settings.
func (c Config) Embedding() embed.Settings {
	return embed.Settings{
		Provider:  c.Embedder,
		Model:     c.EmbeddingModel,
		BaseURL:   c.EmbeddingBaseURL,
		APIKey:    c.EmbeddingAPIKey,
		BatchSize: c.EmbeddingBatchSize,
		Dimension: c.EmbeddingDimension,
		Timeout:   c.EmbeddingTimeout,
	}
}

// Validate checks the settings a batch run depends on.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JobToBeDone) == "" && strings.TrimSpace(c.Persona.Role) == "" {
		errs = append(errs, errors.New("JOB_TO_BE_DONE or PERSONA_ROLE is required"))
	}
	if c.TopLevelK < 1 {
		errs = append(errs, fmt.Errorf("TOP_LEVEL_K must be >= 1, got %d", c.TopLevelK))
	}
	if c.SubLevelK < 1 {
		errs = append(errs, fmt.Errorf("SUB_LEVEL_K must be >= 1, got %d", c.SubLevelK))
	}
	switch c.Embedder {
	case "hash", "ollama":
	case "openai":
		if c.EmbeddingAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai embedder"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedder %q", c.Embedder))
	}
	switch c.OutputFormat {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.OutputFormat))
	}
	return errors.Join(errs...)
}

// ValidateServer checks the settings the HTTP service needs. Persona and job
// arrive per request, so only the service-level settings are required.
func (c Config) ValidateServer() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("DOCRANK_API_KEY is required"))
	}
	if c.Embedder == "openai" && c.EmbeddingAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai embedder"))
	}
	switch c.Embedder {
	case "hash", "ollama", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder %q", c.Embedder))
	}
	switch c.OutputFormat {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.OutputFormat))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
