package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/varsig/internal/cache"
	"github.com/ppiankov/varsig/internal/llm"
	"github.com/ppiankov/varsig/internal/metrics"
	"github.com/ppiankov/varsig/internal/model"
	"github.com/ppiankov/varsig/internal/pipeline"
	"github.com/ppiankov/varsig/internal/source"
	"github.com/ppiankov/varsig/internal/util"
	"github.com/ppiankov/varsig/internal/validate"
	"github.com/ppiankov/varsig/internal/worker"
)

// app holds the components one command works with
type app struct {
	cfg      *model.Config
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	session  *pipeline.Session
	pipeline *pipeline.Pipeline
	sources  []model.Source
}

// newApp wires sources, generator, cache and pipeline from cfg.
// Credentials must already be loaded.
func newApp(cfg *model.Config, sources []model.Source, logger *logrus.Logger) (*app, error) {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	httpClient := util.NewHTTPClient(cfg.HTTP)

	// Generation calls get their own deadline; the shared client timeout is
	// sized for search requests.
	llmHTTP := cfg.HTTP
	llmHTTP.Timeout = time.Duration(cfg.LLM.Timeout) * time.Second
	gen, err := llm.NewGenerator(llm.ConfigFromModel(cfg.LLM, util.NewHTTPClient(llmHTTP), limiter))
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	m := metrics.New()
	opts := pipeline.Options{
		Generator:   gen,
		Authority:   validate.NewAuthorityClassifier(&cfg.Authority),
		Workers:     cfg.Concurrency.Workers,
		TaskTimeout: cfg.Concurrency.TaskTimeout,
		Logger:      logger,
		Metrics:     m,
	}

	sources = enabledSources(cfg, sources)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no usable sources: %w", pipeline.ErrSourceUnavailable)
	}

	for _, src := range sources {
		switch src {
		case model.SourceWeb:
			keys, err := source.NewKeySelector(cfg.Search.KeySelector, cfg.Search.APIKeys)
			if err != nil {
				return nil, fmt.Errorf("web search keys: %w", err)
			}
			opts.Web = source.NewWebSearch(cfg.Search.BaseURL, cfg.Search.Depth, keys, httpClient, limiter)
		case model.SourceKnowledgeBase:
			opts.KnowledgeBase = source.NewKnowledgeBase(cfg.KnowledgeBase.BaseURL, cfg.KnowledgeBase.APIToken, httpClient, limiter)
		}
	}

	session := pipeline.NewSession(cfg, cache.NewMemoryCache(), gen)
	opts.Cache = session.Cache

	logger.WithFields(logrus.Fields{
		"provider": gen.Name(),
		"workers":  cfg.Concurrency.Workers,
		"sources":  sources,
	}).Debug("Components ready")

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		session:  session,
		pipeline: pipeline.New(opts),
		sources:  sources,
	}, nil
}

// serveMetrics starts the /metrics endpoint when addr is set
func (a *app) serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	go func() {
		a.logger.WithField("addr", addr).Info("Serving metrics")
		if err := a.metrics.Serve(ctx, addr); err != nil {
			a.logger.WithError(err).Error("Metrics server stopped")
		}
	}()
}

// search runs the pipeline over variants with the session's current settings
func (a *app) search(ctx context.Context, variants []string) ([]model.VariantRecord, error) {
	policy, err := a.session.Policy(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Could not list models; continuing with the configured list")
	}

	return a.pipeline.Run(ctx, pipeline.Request{
		Variants:  variants,
		Template:  a.session.Template(),
		TumorType: a.session.TumorType(),
		Sources:   a.sources,
		Policy:    policy,
	})
}
