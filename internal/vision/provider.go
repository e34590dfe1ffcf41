package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/wastetrack/ticketscan/internal/model"
)

// Provider defines the interface for vision-model providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractText performs a plain OCR pass: all visible text, layout preserved
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)

	// ExtractStructured asks the model to answer the prompt with a JSON object
	ExtractStructured(ctx context.Context, image []byte, mimeType string, prompt string) (map[string]any, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds vision provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific, empty = provider default)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, test servers)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   60 * time.Second,
		MaxTokens: 4096,
	}
}

// ConfigFromModel converts model.VisionConfig to vision.Config for a
// specific provider name.
func ConfigFromModel(mc model.VisionConfig, provider string) Config {
	cfg := DefaultConfig()
	cfg.Provider = provider
	cfg.Model = mc.Model
	if mc.Timeout > 0 {
		cfg.Timeout = mc.Timeout
	}
	switch provider {
	case "openai":
		cfg.APIKey = mc.OpenAIAPIKey
	case "anthropic", "claude":
		cfg.APIKey = mc.AnthropicAPIKey
	case "ollama":
		cfg.BaseURL = mc.OllamaBaseURL
	}
	return cfg
}

// ProviderError is a failed or malformed remote vision-model call
type ProviderError struct {
	Provider string
	Status   int // HTTP status, 0 for transport or parsing failures
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Message, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// providerError builds a transport/parsing ProviderError
func providerError(provider, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Message: message, Err: err}
}
