package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/iocache"
	"github.com/huangsam/patternscan/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendConfig reads and validates the history backend settings.
// An empty backend means history tracking is off.
func historyBackendConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("history-backend")
	connStr := viper.GetString("history-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	backend, connStr, err := historyBackendConfig()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no scan cache for history commands)
	if err := iocache.InitCaching("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyLightSetupWrapper loads the history settings without opening the
// store. Clearing and migrating must work on a fresh or broken database.
func historyLightSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackendConfig()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyFilePath is the sqlite file used by the run history.
func historyFilePath() string {
	if cfg.HistoryDBConnect != "" {
		return cfg.HistoryDBConnect
	}
	return contract.GetHistoryDBFilePath()
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by analysis commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage recorded pattern runs and exports",
	Long: `Manage the run history used for trend tracking and reporting.

When a history backend is configured, every patterns run stores:
- Run metadata (timestamp, root, configuration, duration)
- Run totals (files, recurring patterns, suggestions)
- One row per reported pattern frequency

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all history data
  migrate - Run database schema migrations

Examples:
  # Record runs in SQLite
  PATTERNSCAN_HISTORY_BACKEND=sqlite patternscan patterns

  # Export for analysis in pandas/DuckDB
  patternscan history export --output-file pattern-history`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded pattern runs",
	Long: `Delete all stored runs and pattern frequencies.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the history tables

Examples:
  # Export before clearing
  patternscan history export --output-file backup
  patternscan history clear`,
	PreRunE: historyLightSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, historyFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show information about the recorded pattern runs.

Displays:
- Backend type and connection status
- Number of recorded runs and scanned files
- Last and oldest run timestamps
- Row counts per history table

Examples:
  patternscan history status`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := cacheManager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", fmt.Errorf("history tracking is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the run history to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs to Parquet files",
	Long: `Write the run history to two Parquet files:
  <output-file>.runs.parquet         - one row per run
  <output-file>.frequencies.parquet  - one row per reported pattern frequency

Examples:
  patternscan history export --output-file pattern-history
  duckdb -c "SELECT * FROM 'pattern-history.frequencies.parquet'"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(cacheManager.GetHistoryStore(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs the embedded schema migrations.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run history database schema migrations",
	Long: `Apply the embedded schema migrations to the history database.

The migration state is kept in its own table so migrations can be applied
to a fresh database before the first run, or rolled back to a version.

Examples:
  # Migrate to the latest version
  PATTERNSCAN_HISTORY_BACKEND=sqlite patternscan history migrate

  # Roll back everything
  patternscan history migrate --target-version 0`,
	PreRunE: historyLightSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		connStr := cfg.HistoryDBConnect
		if cfg.HistoryBackend == schema.SQLiteBackend && connStr == "" {
			connStr = contract.GetHistoryDBFilePath()
		}
		if err := iocache.MigrateHistory(cfg.HistoryBackend, connStr, viper.GetInt("target-version"), os.Stdout); err != nil {
			contract.LogFatal("Failed to migrate history database", err)
		}
	},
}
