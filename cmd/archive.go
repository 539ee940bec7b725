package cmd

import (
	"fmt"

	"github.com/huangsam/perftimeline/internal/archive"
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// archiveBackendConfig reads and validates the archive backend settings.
func archiveBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("archive-backend")
	connStr := viper.GetString("archive-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid archive backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// archiveSetup loads minimal configuration needed for archive operations.
// This is used by commands that need archive access without full shared setup.
func archiveSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := archiveBackendConfig()
	if err != nil {
		return err
	}

	if err := archive.InitArchive(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize archive: %w", err)
	}

	cfg.ArchiveBackend = backend
	cfg.ArchiveDBConnect = connStr
	return nil
}

// archiveMigrateSetup loads configuration for migrations.
// It does NOT initialize the store or create tables, so migrations can run on a fresh database.
func archiveMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := archiveBackendConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = archive.GetDBFilePath()
	}

	cfg.ArchiveBackend = backend
	cfg.ArchiveDBConnect = connStr
	return nil
}

// archiveCmd focused on run archive management.
//
// Note: Archive subcommands use minimal initialization instead of the full sharedSetup,
// so they work without a logs directory.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the archive of past timeline runs",
	Long: `Manage the optional archive of timeline runs.

When an archive backend is configured, every timeline run stores:
- Run metadata (id, start and end time, counts, selected baseline)
- Every normalized record of that run

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show archive statistics
  clear   - Remove all archived runs
  migrate - Apply or roll back schema migrations`,
}

// archiveStatusCmd shows archive status.
var archiveStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display archive statistics and connection details",
	Args:    cobra.NoArgs,
	PreRunE: archiveSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := archive.Manager.GetStore()
		if store == nil {
			archive.PrintArchiveStatus(schema.ArchiveStatus{Backend: string(schema.NoneBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get archive status", err)
		}
		archive.PrintArchiveStatus(status)
	},
}

// archiveClearCmd clears the archive.
var archiveClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all archived runs",
	Long: `Delete all archived runs and records from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the archive tables

Examples:
  # Clear MySQL archive (set connection string via env variable)
  PERFTIMELINE_ARCHIVE_BACKEND=mysql PERFTIMELINE_ARCHIVE_DB_CONNECT="..." perftimeline archive clear`,
	Args:    cobra.NoArgs,
	PreRunE: archiveMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := archive.GetDBFilePath()
		if cfg.ArchiveBackend == schema.SQLiteBackend && cfg.ArchiveDBConnect != "" {
			dbFilePath = cfg.ArchiveDBConnect
		}
		if err := archive.ClearArchive(cfg.ArchiveBackend, dbFilePath, cfg.ArchiveDBConnect); err != nil {
			contract.LogFatal("Failed to clear archive", err)
		}
		fmt.Println("Archive cleared successfully.")
	},
}

// archiveMigrateCmd runs schema migrations.
var archiveMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply archive schema migrations",
	Long: `Migrate the archive schema to the latest or to a specific version.

Examples:
  # Migrate to the latest version
  perftimeline archive migrate --archive-backend sqlite

  # Roll back everything
  perftimeline archive migrate --archive-backend sqlite --target-version 0`,
	Args:    cobra.NoArgs,
	PreRunE: archiveMigrateSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return archive.MigrateArchive(cfg.ArchiveBackend, cfg.ArchiveDBConnect, viper.GetInt("target-version"))
	},
}
