package factory

import (
	"fmt"

	"legal-intake-be/pkg/llm"
	"legal-intake-be/pkg/llm/ollama"
	"legal-intake-be/pkg/llm/openai"
)

type ProviderConfig struct {
	Provider    string
	Model       string
	VisionModel string
	BaseURL     string
	APIKey      string
	MaxRetries  int
}

// NewLLMProvider builds the configured backend wrapped in bounded retry.
func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	var provider llm.LLMProvider

	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		provider = ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.VisionModel)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		provider = openai.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.VisionModel)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	retry := llm.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxTries = uint(cfg.MaxRetries)
	}
	return llm.WithRetry(provider, retry), nil
}
