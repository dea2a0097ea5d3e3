package llm

import (
	"fmt"
)

type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderGemini ProviderType = "gemini"
)

type ProviderConfig struct {
	Type      ProviderType
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
}

func NewCompleter(config ProviderConfig) (Completer, error) {
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	switch config.Type {
	case ProviderOpenAI, "":
		return NewOpenAIProvider(config.BaseURL, config.Model, config.APIKey, maxTokens), nil
	case ProviderOllama:
		return NewOllamaProvider(config.BaseURL, config.Model, maxTokens), nil
	case ProviderGemini:
		return NewGeminiProvider(config.Model, config.APIKey, maxTokens)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s (supported: %v)", config.Type, SupportedProviders)
	}
}
