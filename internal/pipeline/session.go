package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/ppiankov/varsig/internal/cache"
	"github.com/ppiankov/varsig/internal/llm"
	"github.com/ppiankov/varsig/internal/model"
)

// Session is the state of one interactive session: configuration, the
// response cache, the working variant list and the model catalog.
// Runs only read from it, except for cache writes made by the coordinator.
type Session struct {
	Config *model.Config
	Cache  cache.Store

	catalog *llm.Catalog

	mu        sync.Mutex
	variants  []string
	template  string
	tumorType string
}

// NewSession creates a session. gen may be nil when no dynamic model list is wanted.
func NewSession(cfg *model.Config, store cache.Store, gen llm.Generator) *Session {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if store == nil {
		store = cache.NewMemoryCache()
	}

	s := &Session{
		Config:    cfg,
		Cache:     store,
		template:  cfg.Search.Template,
		tumorType: cfg.Search.TumorType,
	}
	if gen != nil {
		s.catalog = llm.NewCatalog(gen)
	}
	return s
}

// Variants returns a copy of the working variant list
func (s *Session) Variants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.variants...)
}

// SetVariants replaces the working variant list
func (s *Session) SetVariants(variants []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants = append([]string(nil), variants...)
}

// AddVariant appends a variant to the working list
func (s *Session) AddVariant(variant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants = append(s.variants, variant)
}

// ClearVariants empties the working list
func (s *Session) ClearVariants() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants = nil
}

// Template returns the query template in effect
func (s *Session) Template() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.template == "" {
		return model.DefaultTemplate
	}
	return s.template
}

// SetTemplate changes the query template for later runs
func (s *Session) SetTemplate(template string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template = template
}

// TumorType returns the tumor-type qualifier in effect
func (s *Session) TumorType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tumorType
}

// SetTumorType changes the tumor-type qualifier for later runs
func (s *Session) SetTumorType(tumorType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tumorType = strings.TrimSpace(tumorType)
}

// Models returns the generation-capable models, listed once per session.
// A session without a generator has no dynamic models.
func (s *Session) Models(ctx context.Context) ([]string, error) {
	if s.catalog == nil {
		return nil, nil
	}
	return s.catalog.Models(ctx)
}

// Policy builds the fallback policy for a run. The preferred list comes from
// the configuration, or the provider defaults when none is configured. When
// dynamic models are enabled the catalog is consulted; a listing error is
// returned alongside a policy that is still usable without the dynamic list.
func (s *Session) Policy(ctx context.Context) (llm.Policy, error) {
	llmCfg := s.Config.LLM

	models := append([]string(nil), llmCfg.Models...)
	if len(models) == 0 {
		models = append(models, model.DefaultModels[strings.ToLower(llmCfg.Provider)]...)
	}

	policy := llm.Policy{Models: models}
	if !llmCfg.DynamicModels {
		return policy, nil
	}

	dynamic, err := s.Models(ctx)
	if err != nil {
		return policy, err
	}
	policy.Dynamic = dynamic
	return policy, nil
}
