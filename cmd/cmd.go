// Package cmd defines the command-line interface for perftimeline.
package cmd

import (
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(milestonesCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the archive subcommands to the parent archive command
	archiveCmd.AddCommand(archiveStatusCmd)
	archiveCmd.AddCommand(archiveClearCmd)
	archiveCmd.AddCommand(archiveMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("root", contract.DefaultRoot, "Directory containing the logs directory; reports are written under it")
	rootCmd.PersistentFlags().String("logs-dir", contract.DefaultLogsDir, "Log directory, relative to root unless absolute")
	rootCmd.PersistentFlags().String("out-dir", contract.DefaultOutDir, "Report directory, relative to root unless absolute")
	rootCmd.PersistentFlags().String("csv-name", contract.DefaultCSVName, "File name of the tabular export")
	rootCmd.PersistentFlags().String("md-name", contract.DefaultMarkdownName, "File name of the narrative report")
	rootCmd.PersistentFlags().String("parquet-file", "", "Optional path to also export records as Parquet")
	rootCmd.PersistentFlags().String("metrics-file", "", "Optional path to write Prometheus textfile metrics")
	rootCmd.PersistentFlags().String("archive-backend", string(schema.NoneBackend), "Run archive backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("archive-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of milestonesCmd to Viper
	milestonesCmd.Flags().Bool("markdown", false, "Render the milestone table as markdown")
	if err := viper.BindPFlags(milestonesCmd.Flags()); err != nil {
		contract.LogFatal("Error binding milestones flags", err)
	}

	// Bind all flags of archiveMigrateCmd to Viper
	archiveMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(archiveMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding archive migrate flags", err)
	}
}
