package pipeline

import (
	"context"

	"github.com/ppiankov/varsig/internal/llm"
	"github.com/ppiankov/varsig/internal/model"
	"github.com/ppiankov/varsig/internal/source"
	"github.com/ppiankov/varsig/internal/worker"
)

// fetchOutput is the result of a phase 1 job
type fetchOutput struct {
	result      model.SearchResult
	annotation  *model.Annotation
	interrupted bool // The job's context ended before the call finished
}

func (o *fetchOutput) GetError() error { return nil }

// webFetchJob runs one web search
type webFetchJob struct {
	fetcher source.Fetcher
	query   string
}

func (j *webFetchJob) Execute(ctx context.Context) worker.Result {
	res := j.fetcher.Fetch(ctx, j.query)
	return &fetchOutput{result: res, interrupted: ctx.Err() != nil}
}

// annotateJob runs one knowledge-base lookup
type annotateJob struct {
	annotator source.Annotator
	query     model.AnnotationQuery
}

func (j *annotateJob) Execute(ctx context.Context) worker.Result {
	res, annotation := j.annotator.Annotate(ctx, j.query)
	return &fetchOutput{result: res, annotation: annotation, interrupted: ctx.Err() != nil}
}

// summaryOutput is the result of a phase 2 job
type summaryOutput struct {
	outcome model.SummaryOutcome
}

func (o *summaryOutput) GetError() error { return nil }

// summarizeJob runs the model fallback chain for one record
type summarizeJob struct {
	gen    llm.Generator
	prompt string
	policy llm.Policy
}

func (j *summarizeJob) Execute(ctx context.Context) worker.Result {
	return &summaryOutput{outcome: llm.Summarize(ctx, j.gen, j.prompt, j.policy)}
}
