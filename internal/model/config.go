package model

import (
	"runtime"
	"time"
)

// DefaultTemplate is the web-search query template used when none is configured
const DefaultTemplate = "clinical significance of genetic variant {variant}"

// Config is the complete varsig configuration.
// Credentials are tagged yaml:"-" so they never reach config files.
type Config struct {
	Search        SearchConfig        `yaml:"search"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`
	LLM           LLMConfig           `yaml:"llm"`
	HTTP          HTTPConfig          `yaml:"http"`
	Concurrency   ConcurrencyConfig   `yaml:"concurrency"`
	RateLimiting  RateLimitConfig     `yaml:"rate_limiting"`
	Authority     AuthorityConfig     `yaml:"authority"`
	Output        OutputConfig        `yaml:"output"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// SearchConfig configures the web-search source
type SearchConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Template    string   `yaml:"template"`
	TumorType   string   `yaml:"tumor_type"`
	Depth       string   `yaml:"depth"`        // "basic" or "advanced"
	KeySelector string   `yaml:"key_selector"` // "random" or "round-robin"
	APIKeys     []string `yaml:"-"`
}

// KnowledgeBaseConfig configures the OncoKB source
type KnowledgeBaseConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"-"`
}

// Enabled reports whether the knowledge base can be queried
func (c KnowledgeBaseConfig) Enabled() bool {
	return c.APIToken != ""
}

// LLMConfig configures the generation service and the fallback chain
type LLMConfig struct {
	Provider      string   `yaml:"provider"` // gemini, openai, anthropic, ollama
	Models        []string `yaml:"models"`   // Preferred models, tried in order; empty uses DefaultModels[Provider]
	DynamicModels bool     `yaml:"dynamic_models"`
	BaseURL       string   `yaml:"base_url,omitempty"`
	Timeout       int      `yaml:"timeout"` // seconds
	MaxTokens     int      `yaml:"max_tokens"`
	APIKey        string   `yaml:"-"`
}

// HTTPConfig configures outbound HTTP
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty"`
	NoProxy    string        `yaml:"no_proxy,omitempty"`
}

// ConcurrencyConfig bounds the worker pool
type ConcurrencyConfig struct {
	Workers     int           `yaml:"workers"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
}

// RateLimitConfig limits outbound requests per API host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
	ShowRaw bool `yaml:"show_raw"`
}

// LoggingConfig controls the logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultModels is the preferred generation fallback chain per provider
var DefaultModels = map[string][]string{
	"gemini":    {"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"},
	"openai":    {"gpt-4o-mini", "gpt-4o"},
	"anthropic": {"claude-3-5-haiku-20241022", "claude-3-5-sonnet-20241022"},
	"ollama":    {"llama3.1:8b"},
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:     "https://api.tavily.com",
			Template:    DefaultTemplate,
			Depth:       "advanced",
			KeySelector: "random",
		},
		KnowledgeBase: KnowledgeBaseConfig{
			BaseURL: "https://www.oncokb.org/api/v1",
		},
		LLM: LLMConfig{
			Provider:      "gemini",
			DynamicModels: true,
			Timeout:       60,
			MaxTokens:     1024,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "varsig/0.2 (+https://github.com/ppiankov/varsig)",
		},
		Concurrency: ConcurrencyConfig{
			Workers:     runtime.NumCPU(),
			TaskTimeout: 90 * time.Second,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Authority: DefaultAuthority(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
