package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/varsig/internal/model"
	"github.com/ppiankov/varsig/internal/pipeline"
	"github.com/ppiankov/varsig/internal/query"
	"github.com/ppiankov/varsig/internal/worker"
)

// searchFlags are shared by the search and session commands
type searchFlags struct {
	file            string
	template        string
	tumorType       string
	sources         []string
	models          string
	provider        string
	noDynamicModels bool
	workers         int
	taskTimeout     time.Duration
	timeout         time.Duration
	outJSON         string
	outMD           string
	showRaw         bool
	metricsAddr     string
}

var searchOpts searchFlags

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [variant...]",
	Short: "Summarize the clinical significance of one or more variants",
	Long: `Search looks every variant up in the selected sources, then summarizes
the retrieved evidence with the configured language model. Models are tried
in order; unknown models are replaced by the provider's listed models.

Example:
  varsig search "BRAF V600E"
  varsig search "BRAF V600E" "EGFR L858R" --tumor-type Melanoma --source all
  varsig search --file variants.txt --json report.json --md report.md
  varsig search "KRAS G12C" --template investigate --models gemini-2.5-flash,gemini-2.0-flash`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addSearchFlags(searchCmd, &searchOpts)

	searchCmd.Flags().StringVarP(&searchOpts.file, "file", "f", "", "read variants from file (one per line, # comments)")
	searchCmd.Flags().StringVar(&searchOpts.outJSON, "json", "", "write JSON report to path (- for stdout)")
	searchCmd.Flags().StringVar(&searchOpts.outMD, "md", "", "write Markdown report to path (- for stdout)")
	searchCmd.Flags().DurationVar(&searchOpts.timeout, "timeout", 10*time.Minute, "overall search timeout")
}

// addSearchFlags registers the flags that shape a search run
func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "query template with {variant}, or a template name (default, investigate)")
	cmd.Flags().StringVar(&f.tumorType, "tumor-type", "", "tumor type appended to queries (e.g. Melanoma)")
	cmd.Flags().StringSliceVarP(&f.sources, "source", "s", nil, "sources to query: web, oncokb, all (default web)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "generation provider (gemini, openai, anthropic, ollama)")
	cmd.Flags().StringVar(&f.models, "models", "", "comma-separated preferred models, tried in order")
	cmd.Flags().BoolVar(&f.noDynamicModels, "no-dynamic-models", false, "do not fall back to the provider's listed models")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "number of concurrent workers (default: number of CPUs)")
	cmd.Flags().DurationVar(&f.taskTimeout, "task-timeout", 0, "timeout per fetch or summarize task")
	cmd.Flags().BoolVar(&f.showRaw, "raw", false, "include raw OncoKB payloads in output")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}

// apply layers command flags over the loaded configuration
func (f *searchFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("template") {
		cfg.Search.Template = query.ResolveTemplate(f.template)
	} else {
		cfg.Search.Template = query.ResolveTemplate(cfg.Search.Template)
	}
	if cmd.Flags().Changed("tumor-type") {
		cfg.Search.TumorType = f.tumorType
	}
	if f.provider != "" {
		cfg.LLM.Provider = f.provider
		cfg.LLM.Models = nil
	}
	if f.models != "" {
		cfg.LLM.Models = splitList(f.models)
	}
	if f.noDynamicModels {
		cfg.LLM.DynamicModels = false
	}
	if f.workers > 0 {
		cfg.Concurrency.Workers = f.workers
	}
	if f.taskTimeout > 0 {
		cfg.Concurrency.TaskTimeout = f.taskTimeout
	}
	if f.showRaw {
		cfg.Output.ShowRaw = true
	}
}

// prepare loads configuration and credentials and wires the components
func (f *searchFlags) prepare(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)

	sources, err := parseSources(f.sources)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	if err := loadCredentials(cfg, sources, logger, nil); err != nil {
		return nil, err
	}

	return newApp(cfg, sources, logger)
}

func runSearch(cmd *cobra.Command, args []string) error {
	variants := append([]string(nil), args...)
	if searchOpts.file != "" {
		fromFile, err := worker.ReadVariantsFromFile(searchOpts.file)
		if err != nil {
			return fmt.Errorf("read variants: %w", err)
		}
		variants = append(variants, fromFile...)
	}
	if len(query.Active(variants)) == 0 {
		return fmt.Errorf("no variants given: pass them as arguments or with --file")
	}

	a, err := searchOpts.prepare(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, searchOpts.timeout)
	defer cancel()

	a.serveMetrics(ctx, searchOpts.metricsAddr)

	start := time.Now()
	records, err := a.search(ctx, variants)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	a.logger.WithField("duration", time.Since(start).Round(time.Millisecond)).
		Infof("Summarized %d record(s)", len(records))

	renderer := pipeline.NewRenderer(a.cfg.Output.ShowRaw, a.cfg.Output.Verbose)
	report := pipeline.NewReport(records, a.session.Template(), a.session.TumorType())

	if searchOpts.outJSON != "" {
		if err := renderer.RenderJSON(report, searchOpts.outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if searchOpts.outMD != "" {
		if err := renderer.RenderMarkdown(report, searchOpts.outMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
	}
	if searchOpts.outJSON != "-" && searchOpts.outMD != "-" {
		renderer.RenderSummary(cmd.OutOrStdout(), records)
	}

	if failed := countFailed(records); failed > 0 {
		return fmt.Errorf("%d of %d record(s) failed", failed, len(records))
	}
	return nil
}

func countFailed(records []model.VariantRecord) int {
	n := 0
	for _, r := range records {
		if r.Outcome.Failed {
			n++
		}
	}
	return n
}

// describeSources renders sources for status lines
func describeSources(sources []model.Source) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
