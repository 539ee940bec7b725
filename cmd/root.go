package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/perftimeline/core"
	"github.com/huangsam/perftimeline/internal/archive"
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd scans the perf logs and writes the timeline reports.
var rootCmd = &cobra.Command{
	Use:   "perftimeline",
	Short: "Build a single-chat performance timeline from load-test logs.",
	Long: `Perftimeline scans <root>/logs for single-chat E2E result files, normalizes both
the averaged and the single-run formats, and compares a closed-loop baseline against
the current open-loop runs.

Outputs:
  reports/single_chat_perf_timeline.csv  - one row per record
  reports/single_chat_perf_timeline.md   - narrative comparison and per-record table

Examples:
  # Run against the current directory
  perftimeline

  # Run against another checkout and also export Parquet
  perftimeline --root ../chat-server --parquet-file timeline.parquet`,
	Version:            version,
	Args:               cobra.NoArgs,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PreRunE:            sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteTimeline(rootCtx, cfg, contract.NewLocalLogSource(), archive.Manager.GetStore())
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".perftimeline") // Name of config file (without extension)
		viper.SetConfigType("yaml")          // We'll use YAML format
		viper.AddConfigPath(".")             // Look in the current directory
		viper.AddConfigPath("$HOME")         // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("PERFTIMELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("root", contract.DefaultRoot)
	viper.SetDefault("logs-dir", contract.DefaultLogsDir)
	viper.SetDefault("out-dir", contract.DefaultOutDir)
	viper.SetDefault("csv-name", contract.DefaultCSVName)
	viper.SetDefault("md-name", contract.DefaultMarkdownName)
	viper.SetDefault("archive-backend", schema.NoneBackend)
	viper.SetDefault("archive-db-connect", "")
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Initialize the archive with validated config. An unreachable archive
	// only disables archiving for this run.
	if err := archive.InitArchive(cfg.ArchiveBackend, cfg.ArchiveDBConnect); err != nil {
		contract.LogWarn("Archive disabled for this run", err)
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".perftimeline")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
