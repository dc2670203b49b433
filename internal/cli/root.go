package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/varsig/internal/logging"
	"github.com/ppiankov/varsig/internal/model"
)

// Version is set at build time
var Version = "v0.2.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "varsig",
	Short: "varsig - clinical significance summaries for genetic variants",
	Long: `varsig searches the web and the OncoKB knowledge base for genetic variants
and asks a language model to summarize their clinical significance.

Summaries are produced strictly from the retrieved evidence. varsig is a
research aid and does not replace review by a molecular pathologist.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "varsig %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.varsig/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	bindEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnv makes VARSIG_LLM_PROVIDER override llm.provider, and so on
func bindEnv() {
	viper.SetEnvPrefix("VARSIG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".varsig"), nil
}

// envOverrides are the config keys that may be set through VARSIG_* variables
var envOverrides = []string{
	"search.template",
	"search.tumor_type",
	"search.depth",
	"search.key_selector",
	"llm.provider",
	"llm.models",
	"llm.dynamic_models",
	"llm.base_url",
	"concurrency.workers",
	"concurrency.task_timeout",
	"logging.level",
	"logging.format",
}

// loadConfig layers defaults, the config file and environment overrides.
// Command flags are applied by each command afterwards.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	for _, key := range envOverrides {
		if _, ok := os.LookupEnv(envName(key)); !ok {
			continue
		}
		applyOverride(cfg, key)
	}

	if viper.GetBool("verbose") {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}

// envName returns the variable viper binds to key
func envName(key string) string {
	return "VARSIG_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func applyOverride(cfg *model.Config, key string) {
	switch key {
	case "search.template":
		cfg.Search.Template = viper.GetString(key)
	case "search.tumor_type":
		cfg.Search.TumorType = viper.GetString(key)
	case "search.depth":
		cfg.Search.Depth = viper.GetString(key)
	case "search.key_selector":
		cfg.Search.KeySelector = viper.GetString(key)
	case "llm.provider":
		cfg.LLM.Provider = viper.GetString(key)
		cfg.LLM.Models = nil
	case "llm.models":
		cfg.LLM.Models = splitList(viper.GetString(key))
	case "llm.dynamic_models":
		cfg.LLM.DynamicModels = viper.GetBool(key)
	case "llm.base_url":
		cfg.LLM.BaseURL = viper.GetString(key)
	case "concurrency.workers":
		cfg.Concurrency.Workers = viper.GetInt(key)
	case "concurrency.task_timeout":
		cfg.Concurrency.TaskTimeout = viper.GetDuration(key)
	case "logging.level":
		cfg.Logging.Level = viper.GetString(key)
	case "logging.format":
		cfg.Logging.Format = viper.GetString(key)
	}
}

// newLogger builds the command logger from the loaded configuration
func newLogger(cfg *model.Config) *logrus.Logger {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// splitList splits a comma-separated flag or variable, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// defaultConfigForFile is the configuration written by config init.
// Worker count is left to the runtime default and the model list is the
// default provider's own chain.
func defaultConfigForFile() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = 0
	cfg.LLM.Models = append([]string(nil), model.DefaultModels[strings.ToLower(cfg.LLM.Provider)]...)
	return cfg
}
