package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/varsig/internal/model"
)

// Report is the rendered form of one run
type Report struct {
	RunID       string                `json:"run_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Template    string                `json:"template"`
	TumorType   string                `json:"tumor_type,omitempty"`
	Records     []model.VariantRecord `json:"records"`
}

// NewReport wraps the records of one run
func NewReport(records []model.VariantRecord, template, tumorType string) Report {
	r := Report{
		GeneratedAt: time.Now().UTC(),
		Template:    template,
		TumorType:   tumorType,
		Records:     records,
	}
	if len(records) > 0 {
		r.RunID = records[0].RunID
	}
	return r
}

// Renderer writes reports as JSON, Markdown or a terminal summary
type Renderer struct {
	showRaw bool
	verbose bool
}

// NewRenderer creates a renderer. showRaw includes the raw knowledge-base
// payload; verbose adds queries and fallback warnings to the terminal output.
func NewRenderer(showRaw, verbose bool) *Renderer {
	return &Renderer{showRaw: showRaw, verbose: verbose}
}

// RenderJSON writes the report as JSON to path ("-" for stdout)
func (r *Renderer) RenderJSON(report Report, path string) error {
	return writeTo(path, func(w io.Writer) error { return r.WriteJSON(w, report) })
}

// RenderMarkdown writes the report as Markdown to path ("-" for stdout)
func (r *Renderer) RenderMarkdown(report Report, path string) error {
	return writeTo(path, func(w io.Writer) error { return r.WriteMarkdown(w, report) })
}

// WriteJSON encodes the report
func (r *Renderer) WriteJSON(w io.Writer, report Report) error {
	report.Records = r.prepare(report.Records)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// WriteMarkdown renders the report as Markdown
func (r *Renderer) WriteMarkdown(w io.Writer, report Report) error {
	var b strings.Builder

	b.WriteString("# Variant Clinical Significance\n\n")
	fmt.Fprintf(&b, "- **Run**: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- **Generated**: %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Template**: `%s`\n", report.Template)
	if report.TumorType != "" {
		fmt.Fprintf(&b, "- **Tumor type**: %s\n", report.TumorType)
	}

	for _, rec := range r.prepare(report.Records) {
		fmt.Fprintf(&b, "\n## %s (%s)\n\n", rec.Variant, sourceLabel(rec.Source))
		fmt.Fprintf(&b, "**Query**: `%s`", rec.Query)
		if rec.Cached {
			b.WriteString(" _(cached)_")
		}
		b.WriteString("\n\n")

		b.WriteString("### Summary\n\n")
		b.WriteString(rec.Outcome.Summary)
		b.WriteString("\n")
		if rec.Outcome.Model != "" {
			fmt.Fprintf(&b, "\n_Model: %s_\n", rec.Outcome.Model)
		}

		if items := listedItems(rec.Result); len(items) > 0 {
			b.WriteString("\n### Sources\n\n")
			for _, item := range items {
				title := item.Title
				if title == "" {
					title = item.URL
				}
				fmt.Fprintf(&b, "- [%s](%s)", title, item.URL)
				if item.Authority != model.TierUnknown {
					fmt.Fprintf(&b, " _%s_", item.Authority)
				}
				b.WriteString("\n")
			}
		}

		if len(rec.Outcome.Warnings) > 0 {
			b.WriteString("\n### Warnings\n\n")
			for _, warning := range rec.Outcome.Warnings {
				fmt.Fprintf(&b, "- %s\n", warning)
			}
		}

		if rec.Annotation != nil && len(rec.Annotation.Raw) > 0 {
			b.WriteString("\n### Raw OncoKB data\n\n```json\n")
			b.WriteString(indentJSON(rec.Annotation.Raw))
			b.WriteString("\n```\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary prints a human-readable summary
func (r *Renderer) RenderSummary(w io.Writer, records []model.VariantRecord) {
	for _, rec := range r.prepare(records) {
		fmt.Fprintf(w, "\n━━━ %s [%s] ━━━\n", rec.Variant, sourceLabel(rec.Source))

		if r.verbose {
			cached := ""
			if rec.Cached {
				cached = " (cached)"
			}
			fmt.Fprintf(w, "Query: %s%s\n", rec.Query, cached)
		}

		if items := listedItems(rec.Result); len(items) > 0 {
			fmt.Fprintf(w, "Sources (%d):\n", len(items))
			for _, item := range items {
				if item.Title != "" {
					fmt.Fprintf(w, "  - %s\n    %s\n", item.Title, item.URL)
				} else {
					fmt.Fprintf(w, "  - %s\n", item.URL)
				}
			}
		}

		marker := "✓"
		if rec.Outcome.Failed {
			marker = "✗"
		}
		fmt.Fprintf(w, "\n%s %s\n", marker, rec.Outcome.Summary)
		if rec.Outcome.Model != "" && r.verbose {
			fmt.Fprintf(w, "  (model: %s)\n", rec.Outcome.Model)
		}

		if len(rec.Outcome.Warnings) > 0 {
			if r.verbose {
				fmt.Fprintln(w, "\nWarnings:")
				for _, warning := range rec.Outcome.Warnings {
					fmt.Fprintf(w, "  ⚠ %s\n", warning)
				}
			} else {
				fmt.Fprintf(w, "  ⚠ %d model fallback warning(s); use --verbose to show\n", len(rec.Outcome.Warnings))
			}
		}

		if rec.Annotation != nil && len(rec.Annotation.Raw) > 0 {
			fmt.Fprintf(w, "\nRaw OncoKB data:\n%s\n", indentJSON(rec.Annotation.Raw))
		}
	}
	fmt.Fprintln(w)
}

// prepare copies records and drops raw payloads unless they were requested
func (r *Renderer) prepare(records []model.VariantRecord) []model.VariantRecord {
	out := make([]model.VariantRecord, len(records))
	copy(out, records)
	if r.showRaw {
		return out
	}
	for i := range out {
		if out[i].Annotation != nil {
			a := *out[i].Annotation
			a.Raw = nil
			out[i].Annotation = &a
		}
	}
	return out
}

// listedItems returns the items worth listing as sources
func listedItems(res model.SearchResult) []model.SearchItem {
	if res.IsErr() {
		return nil
	}
	var items []model.SearchItem
	for _, item := range res.Items {
		if item.URL != "" {
			items = append(items, item)
		}
	}
	return items
}

func sourceLabel(src model.Source) string {
	switch src {
	case model.SourceKnowledgeBase:
		return "OncoKB"
	case model.SourceWeb:
		return "web search"
	default:
		return string(src)
	}
}

func indentJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func writeTo(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
