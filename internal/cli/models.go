package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/varsig/internal/llm"
	"github.com/ppiankov/varsig/internal/util"
)

var modelsProvider string

// modelsCmd lists the models a provider can generate with
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List generation models available to the configured provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if modelsProvider != "" {
			cfg.LLM.Provider = modelsProvider
		}

		logger := newLogger(cfg)
		if err := loadCredentials(cfg, nil, logger, nil); err != nil {
			return err
		}

		gen, err := llm.NewGenerator(llm.ConfigFromModel(cfg.LLM, util.NewHTTPClient(cfg.HTTP), nil))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		models, err := gen.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		for _, m := range models {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "generation provider (gemini, openai, anthropic, ollama)")
}
