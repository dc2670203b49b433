package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/varsig/internal/llm"
	"github.com/ppiankov/varsig/internal/model"
)

var (
	// ErrMissingSearchKeys is returned when the web source is selected without Tavily keys
	ErrMissingSearchKeys = errors.New("no web search API keys: set TAVILY_API_KEYS or TAVILY_KEY_1..N")

	// ErrMissingLLMKey is returned when the generation provider needs a key that is not set
	ErrMissingLLMKey = errors.New("generation API key not set")
)

// providerKeyEnv maps a provider to the variable holding its API key
var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
}

// searchKeysFromEnv reads TAVILY_API_KEYS (comma separated), then
// TAVILY_KEY_1, TAVILY_KEY_2, ... until the first unset index
func searchKeysFromEnv(getenv func(string) string) []string {
	if keys := splitList(getenv("TAVILY_API_KEYS")); len(keys) > 0 {
		return keys
	}

	var keys []string
	for i := 1; ; i++ {
		key := strings.TrimSpace(getenv("TAVILY_KEY_" + strconv.Itoa(i)))
		if key == "" {
			break
		}
		keys = append(keys, key)
	}
	return keys
}

// loadCredentials fills the secret fields of cfg from the environment.
// Missing required credentials are errors; a missing OncoKB token disables
// that source with a warning.
func loadCredentials(cfg *model.Config, sources []model.Source, logger *logrus.Logger, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	provider := strings.ToLower(cfg.LLM.Provider)
	if llm.RequiresKey(provider) {
		name, ok := providerKeyEnv[provider]
		if !ok {
			return fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", cfg.LLM.Provider)
		}
		cfg.LLM.APIKey = strings.TrimSpace(getenv(name))
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("%w: set %s", ErrMissingLLMKey, name)
		}
	} else if base := getenv("OLLAMA_BASE_URL"); base != "" {
		cfg.LLM.BaseURL = base
	}

	for _, src := range sources {
		switch src {
		case model.SourceWeb:
			cfg.Search.APIKeys = searchKeysFromEnv(getenv)
			if len(cfg.Search.APIKeys) == 0 {
				return ErrMissingSearchKeys
			}
		case model.SourceKnowledgeBase:
			cfg.KnowledgeBase.APIToken = strings.TrimSpace(getenv("ONCOKB_API_TOKEN"))
			if !cfg.KnowledgeBase.Enabled() {
				logger.Warn("ONCOKB_API_TOKEN not set; the OncoKB source is disabled")
			}
		}
	}

	return nil
}

// parseSources converts source names to sources, defaulting to web only
func parseSources(names []string) ([]model.Source, error) {
	if len(names) == 0 {
		return []model.Source{model.SourceWeb}, nil
	}

	var sources []model.Source
	for _, name := range names {
		if strings.EqualFold(name, "all") {
			return []model.Source{model.SourceWeb, model.SourceKnowledgeBase}, nil
		}
		src, ok := model.ParseSource(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("unknown source %q (supported: web, oncokb, all)", name)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// enabledSources drops sources that lack credentials
func enabledSources(cfg *model.Config, sources []model.Source) []model.Source {
	out := make([]model.Source, 0, len(sources))
	for _, src := range sources {
		if src == model.SourceKnowledgeBase && !cfg.KnowledgeBase.Enabled() {
			continue
		}
		out = append(out, src)
	}
	return out
}
