package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/varsig/internal/model"
)

// Policy is the model fallback chain for one summarization
type Policy struct {
	// Models are the preferred candidates, tried in order
	Models []string

	// Dynamic is spliced in after the current candidate the first time Splice
	// accepts an error. Models already tried or already queued are skipped.
	Dynamic []string

	// Splice decides whether an error triggers the dynamic splice.
	// Nil means IsModelNotFound.
	Splice func(error) bool

	// Observe, when set, is called once per generation call with the model
	// and one of the Attempt* outcomes. It may be called concurrently.
	Observe func(model, outcome string)
}

// Outcomes reported to Policy.Observe
const (
	AttemptSuccess = "success"
	AttemptError   = "error"
	AttemptBlocked = "blocked"
	AttemptEmpty   = "empty"
)

func (p Policy) observe(model, outcome string) {
	if p.Observe != nil {
		p.Observe(model, outcome)
	}
}

func (p Policy) shouldSplice(err error) bool {
	if p.Splice != nil {
		return p.Splice(err)
	}
	return IsModelNotFound(err)
}

// Summarize tries each candidate model in order until one yields non-empty,
// unblocked text. Every failed attempt adds a warning. The policy's slices are
// never modified.
func Summarize(ctx context.Context, gen Generator, prompt string, policy Policy) model.SummaryOutcome {
	candidates := append([]string(nil), policy.Models...)
	outcome := model.SummaryOutcome{Warnings: []string{}}

	if len(candidates) == 0 {
		candidates = append(candidates, policy.Dynamic...)
	}
	if len(candidates) == 0 {
		outcome.Failed = true
		outcome.LastError = ErrNoModels.Error()
		outcome.Summary = failureSummary(outcome.LastError)
		return outcome
	}

	tried := make(map[string]bool, len(candidates))
	spliced := false

	for i := 0; i < len(candidates); i++ {
		name := candidates[i]
		if tried[name] {
			continue
		}
		tried[name] = true

		if ctx.Err() != nil {
			outcome.LastError = ctx.Err().Error()
			break
		}

		out, err := gen.Generate(ctx, name, prompt)
		if err != nil {
			policy.observe(name, AttemptError)
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("Model %s failed: %v", name, err))
			outcome.LastError = err.Error()
			if ctx.Err() != nil {
				break
			}

			if !spliced && len(policy.Dynamic) > 0 && policy.shouldSplice(err) {
				spliced = true
				candidates = spliceAfter(candidates, i, policy.Dynamic, tried)
			}
			continue
		}

		if out.Blocked {
			policy.observe(name, AttemptBlocked)
			reason := out.BlockReason
			if reason == "" {
				reason = "blocked"
			}
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("Model %s returned a blocked response (%s)", name, reason))
			outcome.LastError = "response blocked: " + reason
			continue
		}

		text := strings.TrimSpace(out.Text)
		if text == "" {
			policy.observe(name, AttemptEmpty)
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("Model %s returned an empty response", name))
			outcome.LastError = "empty response"
			continue
		}

		policy.observe(name, AttemptSuccess)
		outcome.Summary = text
		outcome.Model = name
		return outcome
	}

	outcome.Failed = true
	if outcome.LastError == "" {
		outcome.LastError = "no model produced a response"
	}
	outcome.Summary = failureSummary(outcome.LastError)
	return outcome
}

func failureSummary(lastErr string) string {
	return "Summary generation failed for all models. Last error: " + lastErr
}

// spliceAfter inserts the untried, unqueued dynamic models right after position i
func spliceAfter(candidates []string, i int, dynamic []string, tried map[string]bool) []string {
	queued := make(map[string]bool, len(candidates))
	for _, c := range candidates[i+1:] {
		queued[c] = true
	}

	var extra []string
	for _, d := range dynamic {
		if d == "" || tried[d] || queued[d] {
			continue
		}
		queued[d] = true
		extra = append(extra, d)
	}

	out := make([]string, 0, len(candidates)+len(extra))
	out = append(out, candidates[:i+1]...)
	out = append(out, extra...)
	out = append(out, candidates[i+1:]...)
	return out
}
