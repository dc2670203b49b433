package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/varsig/internal/cache"
	"github.com/ppiankov/varsig/internal/llm"
	"github.com/ppiankov/varsig/internal/logging"
	"github.com/ppiankov/varsig/internal/metrics"
	"github.com/ppiankov/varsig/internal/model"
	"github.com/ppiankov/varsig/internal/query"
	"github.com/ppiankov/varsig/internal/source"
	"github.com/ppiankov/varsig/internal/validate"
	"github.com/ppiankov/varsig/internal/worker"
)

// Explanatory summaries for records that never reach the generator
const (
	NotFoundSummary    = "Variant not found in OncoKB."
	NoResultsSummary   = "No search results were returned for this query."
	skippedPrefix      = "Variant skipped for this source: "
	fetchFailedPrefix  = "Search failed: "
	lookupFailedPrefix = "OncoKB lookup failed: "
)

var (
	// ErrNoGenerator is returned when a pipeline has no generation client
	ErrNoGenerator = errors.New("no generation client configured")

	// ErrSourceUnavailable is returned when a requested source is not configured
	ErrSourceUnavailable = errors.New("source not configured")
)

// Options wires a pipeline
type Options struct {
	Web           source.Fetcher   // Required for model.SourceWeb
	KnowledgeBase source.Annotator // Required for model.SourceKnowledgeBase
	Generator     llm.Generator
	Cache         cache.Store
	Authority     *validate.AuthorityClassifier // Nil uses the built-in tiers
	Workers       int
	TaskTimeout   time.Duration
	Logger        *logrus.Logger
	Metrics       *metrics.Metrics
}

// Pipeline orchestrates the two-phase fetch and summarize process
type Pipeline struct {
	web     source.Fetcher
	kb      source.Annotator
	gen     llm.Generator
	cache   cache.Store
	grader  *validate.AuthorityClassifier
	batch   worker.BatchOptions
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// Request is one search run. The pipeline only reads it.
type Request struct {
	Variants  []string
	Template  string
	TumorType string
	Sources   []model.Source // Defaults to web only
	Policy    llm.Policy
}

// New creates a pipeline
func New(opts Options) *Pipeline {
	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryCache()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Authority == nil {
		opts.Authority = validate.NewAuthorityClassifier(nil)
	}

	return &Pipeline{
		web:     opts.Web,
		kb:      opts.KnowledgeBase,
		gen:     opts.Generator,
		cache:   opts.Cache,
		grader:  opts.Authority,
		batch:   worker.BatchOptions{Workers: opts.Workers, TaskTimeout: opts.TaskTimeout},
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Run searches every active variant in every requested source and returns one
// record per (variant, source) in input order. Per-variant failures are part
// of the records; the error is only for requests that cannot run at all.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]model.VariantRecord, error) {
	sources, err := p.sources(req.Sources)
	if err != nil {
		return nil, err
	}
	if p.gen == nil {
		return nil, ErrNoGenerator
	}

	template := req.Template
	if template == "" {
		template = model.DefaultTemplate
	}

	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)

	items := query.Active(req.Variants)
	records := make([]model.VariantRecord, 0, len(items)*len(sources))
	for _, item := range items {
		for _, src := range sources {
			records = append(records, model.VariantRecord{
				RunID:   runID,
				Index:   item.Index,
				Variant: item.Variant,
				Source:  src,
			})
		}
	}

	log.WithFields(logrus.Fields{
		"variants": len(items),
		"sources":  len(sources),
	}).Info("Starting search run")

	start := time.Now()
	p.resolve(ctx, log, records, template, req.TumorType)
	p.metrics.ObservePhase("fetch", time.Since(start))
	log.WithField("duration", time.Since(start).Round(time.Millisecond)).Debug("Fetch phase complete")

	start = time.Now()
	p.summarize(ctx, log, records, req.TumorType, req.Policy)
	p.metrics.ObservePhase("summarize", time.Since(start))
	log.WithField("duration", time.Since(start).Round(time.Millisecond)).Debug("Summarize phase complete")

	order := make(map[model.Source]int, len(sources))
	for i, src := range sources {
		order[src] = i
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Index != records[j].Index {
			return records[i].Index < records[j].Index
		}
		return order[records[i].Source] < order[records[j].Source]
	})

	for _, r := range records {
		p.metrics.Record(string(r.Source), recordStatus(r))
	}

	return records, nil
}

// sources validates and deduplicates the requested sources
func (p *Pipeline) sources(requested []model.Source) ([]model.Source, error) {
	if len(requested) == 0 {
		requested = []model.Source{model.SourceWeb}
	}

	seen := make(map[model.Source]bool, len(requested))
	var out []model.Source
	for _, src := range requested {
		if seen[src] {
			continue
		}
		seen[src] = true

		switch src {
		case model.SourceWeb:
			if p.web == nil {
				return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, src)
			}
		case model.SourceKnowledgeBase:
			if p.kb == nil {
				return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, src)
			}
		default:
			return nil, fmt.Errorf("unknown source %q", src)
		}
		out = append(out, src)
	}
	return out, nil
}

// resolve is phase 1: every record gets its search result from the cache or a
// fetch job. The cache is written here, after the batch has joined.
func (p *Pipeline) resolve(ctx context.Context, log *logrus.Entry, records []model.VariantRecord, template, tumorType string) {
	var jobs []worker.Job
	var owners [][]int // owners[j] are the records fed by jobs[j]
	var jobQueries []string
	pending := make(map[string]int) // web query -> job index

	for i := range records {
		r := &records[i]

		switch r.Source {
		case model.SourceWeb:
			r.Query = query.Build(template, r.Variant, tumorType)

			if cached, ok := p.cache.Get(r.Query); ok {
				r.Result = cached
				r.Cached = true
				p.metrics.CacheLookup(true)
				log.WithField("variant", r.Variant).Debug("Cache hit")
				continue
			}
			p.metrics.CacheLookup(false)

			if j, ok := pending[r.Query]; ok {
				owners[j] = append(owners[j], i)
				continue
			}
			pending[r.Query] = len(jobs)
			jobs = append(jobs, &webFetchJob{fetcher: p.web, query: r.Query})
			owners = append(owners, []int{i})
			jobQueries = append(jobQueries, r.Query)

		case model.SourceKnowledgeBase:
			aq, err := query.Annotation(r.Variant, tumorType)
			if err != nil {
				r.Query = r.Variant
				r.Skipped = true
				r.Result = model.Failed(err.Error())
				log.WithFields(logrus.Fields{"variant": r.Variant, "source": r.Source}).Warn("Skipping unparseable variant")
				continue
			}
			r.Query = query.Describe(aq)
			jobs = append(jobs, &annotateJob{annotator: p.kb, query: aq})
			owners = append(owners, []int{i})
			jobQueries = append(jobQueries, "")
		}
	}

	if len(jobs) == 0 {
		return
	}

	results := worker.RunBatch(ctx, p.batch, jobs)

	for j, res := range results {
		var out fetchOutput
		switch v := res.(type) {
		case *fetchOutput:
			out = *v
		default:
			out = fetchOutput{result: model.Failed(fmt.Sprintf("fetch failed: %v", res.GetError())), interrupted: true}
		}

		for _, i := range owners[j] {
			records[i].Result = out.result
			records[i].Annotation = out.annotation

			outcome := "ok"
			if out.result.IsErr() {
				outcome = "error"
				log.WithFields(logrus.Fields{
					"variant": records[i].Variant,
					"source":  records[i].Source,
				}).WithField("error", out.result.Err).Warn("Fetch failed")
			}
			p.metrics.Fetch(string(records[i].Source), outcome)
		}

		// Only successful web results are cached; a failure is retried on the next run.
		if q := jobQueries[j]; q != "" && !out.interrupted && !out.result.IsErr() {
			p.cache.Put(q, out.result)
		}
	}
}

// summarize is phase 2: records with usable content get a summarization job;
// the rest get an explanatory summary and no generation call. Web items are
// labelled with their source authority first.
func (p *Pipeline) summarize(ctx context.Context, log *logrus.Entry, records []model.VariantRecord, tumorType string, policy llm.Policy) {
	var jobs []worker.Job
	var owners []int

	if p.metrics != nil {
		policy.Observe = chainObservers(policy.Observe, p.metrics.ModelAttempt)
	}

	for i := range records {
		r := &records[i]

		if summary, failed, ok := explain(*r); ok {
			r.Outcome = model.SummaryOutcome{Summary: summary, Warnings: []string{}, Failed: failed}
			continue
		}

		// Grading copies the items, so cached results are never touched.
		if r.Source == model.SourceWeb {
			r.Result.Items = p.grader.Grade(r.Result.Items)
		}

		prompt := llm.BuildPrompt(r.Variant, tumorType, r.Source, r.Result.Items)
		jobs = append(jobs, &summarizeJob{gen: p.gen, prompt: prompt, policy: policy})
		owners = append(owners, i)
	}

	if len(jobs) == 0 {
		return
	}

	results := worker.RunBatch(ctx, p.batch, jobs)

	for j, res := range results {
		r := &records[owners[j]]

		switch v := res.(type) {
		case *summaryOutput:
			r.Outcome = v.outcome
		default:
			msg := fmt.Sprintf("%v", res.GetError())
			r.Outcome = model.SummaryOutcome{
				Summary:   "Summary generation failed. Last error: " + msg,
				Warnings:  []string{},
				LastError: msg,
				Failed:    true,
			}
		}

		entry := log.WithFields(logrus.Fields{"variant": r.Variant, "source": r.Source})
		for _, w := range r.Outcome.Warnings {
			entry.Debug(w)
		}
		if r.Outcome.Failed {
			entry.WithField("error", r.Outcome.LastError).Warn("All models failed")
		} else {
			entry.WithField("model", r.Outcome.Model).Debug("Summary generated")
		}
	}
}

func chainObservers(first, second func(model, outcome string)) func(model, outcome string) {
	if first == nil {
		return second
	}
	return func(model, outcome string) {
		first(model, outcome)
		second(model, outcome)
	}
}

// explain returns the summary for a record that must not be sent to the
// generator, and whether it represents a failure
func explain(r model.VariantRecord) (summary string, failed bool, ok bool) {
	switch {
	case r.Skipped:
		return skippedPrefix + r.Result.Err, false, true
	case r.Result.IsErr() && r.Source == model.SourceKnowledgeBase:
		return lookupFailedPrefix + r.Result.Err, true, true
	case r.Result.IsErr():
		return fetchFailedPrefix + r.Result.Err, true, true
	case r.Source == model.SourceKnowledgeBase && (r.Annotation == nil || !r.Annotation.Found):
		return NotFoundSummary, false, true
	case r.Result.Empty():
		return NoResultsSummary, false, true
	}
	return "", false, false
}

func recordStatus(r model.VariantRecord) string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Result.IsErr():
		return "fetch_error"
	case r.Source == model.SourceKnowledgeBase && (r.Annotation == nil || !r.Annotation.Found):
		return "not_found"
	case r.Outcome.Failed:
		return "summary_failed"
	default:
		return "ok"
	}
}
