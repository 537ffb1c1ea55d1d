package embedding

import (
	"fmt"
	"os"

	"reforma/config"
	"reforma/internal/port"
)

// HasCredentials reports whether the configured provider can be reached
// without further setup.
func HasCredentials(cfg config.EmbeddingConfig) bool {
	switch cfg.Provider {
	case "", "none":
		return false
	case "mock", "ollama":
		return true
	default:
		return os.Getenv(cfg.APIKeyEnv) != ""
	}
}

// New builds the embedder selected by the configuration.
func New(cfg config.EmbeddingConfig) (port.Embedder, error) {
	if cfg.Provider == "mock" {
		dim := cfg.Dimension
		if dim <= 0 {
			dim = 1536
		}
		return NewMockEmbedder(dim), nil
	}

	baseURL := cfg.BaseURL
	switch cfg.Provider {
	case "openai":
		baseURL = orDefault(baseURL, OpenAIBaseURL)
	case "openrouter":
		baseURL = orDefault(baseURL, OpenRouterBaseURL)
	case "ollama":
		// Ollama ignores the dimensions parameter and needs no key.
		return NewClient(orDefault(baseURL, OllamaBaseURL), "", cfg.Model, WithProviderName("ollama")), nil
	case "compatible":
		if baseURL == "" {
			return nil, fmt.Errorf("embedding provider %q needs base_url", cfg.Provider)
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", cfg.APIKeyEnv)
	}
	return NewClient(baseURL, apiKey, cfg.Model,
		WithDimension(cfg.Dimension),
		WithProviderName(cfg.Provider),
	), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
