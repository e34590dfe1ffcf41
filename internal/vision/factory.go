package vision

import (
	"fmt"
	"strings"

	"github.com/wastetrack/ticketscan/internal/model"
)

// NewProvider creates a new vision provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown vision provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// Resolve picks a constructible provider from the application configuration:
// the default provider when its credentials are present, otherwise the first
// alternative with credentials.
func Resolve(mc model.VisionConfig) (Provider, error) {
	order := []string{strings.ToLower(mc.DefaultProvider), "anthropic", "openai", "ollama"}
	seen := make(map[string]bool)

	for _, name := range order {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "anthropic", "claude":
			if mc.AnthropicAPIKey == "" {
				continue
			}
		case "openai":
			if mc.OpenAIAPIKey == "" {
				continue
			}
		case "ollama":
			if mc.OllamaBaseURL == "" {
				continue
			}
		default:
			return nil, fmt.Errorf("unknown vision provider: %s (supported: openai, anthropic, ollama)", name)
		}

		return NewProvider(ConfigFromModel(mc, name))
	}

	return nil, fmt.Errorf("no vision provider configured: set ANTHROPIC_API_KEY, OPENAI_API_KEY or OLLAMA_BASE_URL")
}
