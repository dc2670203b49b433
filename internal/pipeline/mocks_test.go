package pipeline

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/ppiankov/varsig/internal/llm"
	"github.com/ppiankov/varsig/internal/model"
)

// countingFetcher returns canned results and counts calls per query
type countingFetcher struct {
	mu      sync.Mutex
	results map[string]model.SearchResult
	calls   map[string]int
}

func newCountingFetcher(results map[string]model.SearchResult) *countingFetcher {
	return &countingFetcher{results: results, calls: make(map[string]int)}
}

func (f *countingFetcher) Fetch(ctx context.Context, query string) model.SearchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[query]++
	if res, ok := f.results[query]; ok {
		return res
	}
	return model.OK([]model.SearchItem{{Content: "evidence for " + query, URL: "https://example.com/" + query}})
}

func (f *countingFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// stubAnnotator returns canned annotations keyed by gene
type stubAnnotator struct {
	mu      sync.Mutex
	queries []model.AnnotationQuery
	found   map[string]bool
}

func (a *stubAnnotator) Annotate(ctx context.Context, q model.AnnotationQuery) (model.SearchResult, *model.Annotation) {
	a.mu.Lock()
	a.queries = append(a.queries, q)
	a.mu.Unlock()

	if !a.found[q.Gene] {
		return model.OK(nil), &model.Annotation{Found: false}
	}
	annotation := &model.Annotation{Found: true, VariantSummary: q.Gene + " " + q.Alteration + " is oncogenic."}
	return model.OK([]model.SearchItem{{Title: "OncoKB", URL: "https://www.oncokb.org/gene/" + q.Gene, Content: annotation.VariantSummary}}), annotation
}

// scriptedGenerator answers every prompt with a fixed text, or fails listed models
type scriptedGenerator struct {
	mu      sync.Mutex
	text    string
	failing map[string]bool
	prompts []string
	models  []string
}

func (g *scriptedGenerator) Name() string { return "scripted" }

func (g *scriptedGenerator) Generate(ctx context.Context, modelName, prompt string) (*llm.Generation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.failing[modelName] {
		return nil, &llm.GenerationError{Provider: "scripted", Model: modelName, Code: llm.CodeModelNotFound, Status: 404}
	}
	return &llm.Generation{Text: g.text, Model: modelName}, nil
}

func (g *scriptedGenerator) ListModels(ctx context.Context) ([]string, error) {
	return g.models, nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// flakyFetcher fails its first calls with a rate-limit error, then succeeds
type flakyFetcher struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyFetcher) Fetch(ctx context.Context, query string) model.SearchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return model.Failed("Request failed with status 429")
	}
	return model.OK([]model.SearchItem{{Content: "evidence for " + query, URL: "https://example.com/e"}})
}

func (f *flakyFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var markerPattern = regexp.MustCompile(`MARKER-[A-Z0-9]+`)

// markerGenerator summarizes a prompt as the evidence markers it contains
type markerGenerator struct{}

func (markerGenerator) Name() string { return "marker" }

func (markerGenerator) Generate(ctx context.Context, modelName, prompt string) (*llm.Generation, error) {
	markers := markerPattern.FindAllString(prompt, -1)
	text := "no markers"
	if len(markers) > 0 {
		text = "summary of " + strings.Join(markers, ",")
	}
	return &llm.Generation{Text: text, Model: modelName}, nil
}

func (markerGenerator) ListModels(ctx context.Context) ([]string, error) { return nil, nil }
