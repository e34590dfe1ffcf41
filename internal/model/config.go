package model

import "time"

// Config holds the full application configuration
type Config struct {
	Vision    VisionConfig    `yaml:"vision"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Batch     BatchConfig     `yaml:"batch"`
	Output    OutputConfig    `yaml:"output"`
}

// VisionConfig configures the remote vision-model providers
type VisionConfig struct {
	// DefaultProvider is tried first when more than one API key is present:
	// "anthropic", "openai" or "ollama"
	DefaultProvider string `yaml:"default_provider"`

	// Model overrides the provider's default model name
	Model string `yaml:"model"`

	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	// OllamaBaseURL enables the local Ollama provider when set
	OllamaBaseURL string `yaml:"ollama_base_url"`

	// Timeout bounds every outbound provider call
	Timeout time.Duration `yaml:"timeout"`
}

// EngineConfig configures the extraction orchestrator
type EngineConfig struct {
	MaxRetries          int           `yaml:"max_retries"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	RetryBackoff        time.Duration `yaml:"retry_backoff"` // base unit, scaled by attempt number
	AutoDetect          bool          `yaml:"auto_detect"`

	// EnablePreprocessing is recognized for forward compatibility and not
	// consumed by the current engine.
	EnablePreprocessing bool `yaml:"enable_preprocessing"`
}

// CacheConfig configures the in-memory extraction result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// RateLimitConfig throttles outbound vision-model requests per provider
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// BatchConfig configures concurrent batch extraction
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// OutputConfig configures CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Vision: VisionConfig{
			DefaultProvider: "anthropic",
			Timeout:         60 * time.Second,
		},
		Engine: EngineConfig{
			MaxRetries:          3,
			ConfidenceThreshold: 0.75,
			RetryBackoff:        time.Second,
			AutoDetect:          true,
			EnablePreprocessing: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Batch: BatchConfig{
			Concurrency: 3,
		},
		Output: OutputConfig{},
	}
}
