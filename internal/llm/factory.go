package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/varsig/internal/model"
	"github.com/ppiankov/varsig/internal/worker"
)

// NewGenerator creates a generator based on configuration
func NewGenerator(config Config) (Generator, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "gemini", "google":
		return NewGeminiGenerator(config)

	case "openai":
		return NewOpenAIGenerator(config)

	case "anthropic", "claude":
		return NewAnthropicGenerator(config)

	case "ollama":
		return NewOllamaGenerator(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (supported: gemini, openai, anthropic, ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig, httpClient *http.Client, limiter *worker.Limiter) Config {
	return Config{
		Provider:   modelConfig.Provider,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    time.Duration(modelConfig.Timeout) * time.Second,
		MaxTokens:  modelConfig.MaxTokens,
		HTTPClient: httpClient,
		Limiter:    limiter,
	}
}

// RequiresKey reports whether provider needs an API key
func RequiresKey(provider string) bool {
	return strings.ToLower(provider) != "ollama"
}
