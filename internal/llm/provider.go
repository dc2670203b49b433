package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/ppiankov/varsig/internal/worker"
)

// Generator is a text-generation service addressed per model identifier
type Generator interface {
	// Name returns the provider name
	Name() string

	// Generate runs prompt against model. An empty or blocked response is
	// not an error: it is reported through Generation.Blocked or empty Text.
	Generate(ctx context.Context, model, prompt string) (*Generation, error)

	// ListModels returns the model identifiers that support text generation
	ListModels(ctx context.Context) ([]string, error)
}

// Generation is the output of a single generation call
type Generation struct {
	Text        string
	Model       string
	Blocked     bool
	BlockReason string
	TokensUsed  int
}

// Config holds generation provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout per generation call
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// HTTPClient is shared with the source fetchers; nil uses a default client
	HTTPClient *http.Client

	// Limiter throttles calls per host; nil disables throttling
	Limiter *worker.Limiter
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "gemini",
		Timeout:   60 * time.Second,
		MaxTokens: 1024,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return 1024
	}
	return c.MaxTokens
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.timeout()}
}

// systemPrompt frames every summarization request
const systemPrompt = "You are a molecular pathology assistant. You summarize the clinical significance of genetic variants strictly from the evidence you are given."
