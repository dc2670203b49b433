package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/varsig/internal/pipeline"
	"github.com/ppiankov/varsig/internal/query"
)

var sessionOpts searchFlags

// sessionCmd represents the interactive session command
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run an interactive session that keeps one cache across searches",
	Long: `Session reads commands from standard input. Search results are cached for
the whole session, so repeating a query costs no further API calls.

Commands:
  <variant>[, <variant>...]   search the given variants now
  :add <variant>              add a variant to the working list
  :list                       show the working list
  :run                        search the working list
  :clear                      empty the working list
  :tumor [type]               set or clear the tumor type
  :template <pattern|name>    set the query template
  :models                     list the models available to the provider
  :quit                       leave the session`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	addSearchFlags(sessionCmd, &sessionOpts)
}

func runSession(cmd *cobra.Command, args []string) error {
	a, err := sessionOpts.prepare(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a.serveMetrics(ctx, sessionOpts.metricsAddr)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "varsig session (sources: %s). Type :quit to leave.\n", describeSources(a.sources))

	return a.interact(ctx, cmd.InOrStdin(), out)
}

// interact runs the session loop until :quit, end of input or cancellation
func (a *app) interact(ctx context.Context, in io.Reader, out io.Writer) error {
	renderer := pipeline.NewRenderer(a.cfg.Output.ShowRaw, a.cfg.Output.Verbose)
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, ":") {
			a.runAndRender(ctx, renderer, out, splitList(line))
			continue
		}

		name, arg, _ := strings.Cut(line[1:], " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(name) {
		case "quit", "q", "exit":
			return nil
		case "add":
			if arg == "" {
				fmt.Fprintln(out, "usage: :add <variant>")
				continue
			}
			a.session.AddVariant(arg)
		case "list":
			variants := a.session.Variants()
			if len(variants) == 0 {
				fmt.Fprintln(out, "(no variants)")
			}
			for i, v := range variants {
				fmt.Fprintf(out, "%d. %s\n", i+1, v)
			}
		case "run":
			a.runAndRender(ctx, renderer, out, a.session.Variants())
		case "clear":
			a.session.ClearVariants()
		case "tumor":
			a.session.SetTumorType(arg)
			fmt.Fprintf(out, "tumor type: %q\n", a.session.TumorType())
		case "template":
			if arg == "" {
				fmt.Fprintf(out, "template: %s\n", a.session.Template())
				continue
			}
			a.session.SetTemplate(query.ResolveTemplate(arg))
			fmt.Fprintf(out, "template: %s\n", a.session.Template())
		case "models":
			models, err := a.session.Models(ctx)
			if err != nil {
				fmt.Fprintf(out, "could not list models: %v\n", err)
				continue
			}
			for _, m := range models {
				fmt.Fprintln(out, m)
			}
		default:
			fmt.Fprintf(out, "unknown command :%s\n", name)
		}
	}
}

func (a *app) runAndRender(ctx context.Context, renderer *pipeline.Renderer, out io.Writer, variants []string) {
	if len(query.Active(variants)) == 0 {
		fmt.Fprintln(out, "no variants to search")
		return
	}

	records, err := a.search(ctx, variants)
	if err != nil {
		fmt.Fprintf(out, "search failed: %v\n", err)
		return
	}
	renderer.RenderSummary(out, records)
}
