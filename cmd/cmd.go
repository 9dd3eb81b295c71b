// Package cmd defines the command-line interface for patternscan.
package cmd

import (
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("state-dir", contract.DefaultStateDir, "Directory for reports and logs, relative to the project root")
	rootCmd.PersistentFlags().String("kernels-dir", contract.DefaultKernelsDir, "Directory holding nuxt_<name>.spr kernels, relative to the project root")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Scanner flags shared by patterns and loop; bound when the command runs
	for _, c := range []*cobra.Command{patternsCmd, loopCmd} {
		c.Flags().String("rules", "", "Path to a YAML rules file (default: built-in Nuxt rules)")
		c.Flags().String("report-file", "", "Path of the pattern report (default: <state-dir>/"+contract.PatternReportName+")")
		c.Flags().StringSlice("scan-dirs", contract.DefaultScanDirs, "Project subdirectories to scan")
		c.Flags().StringSlice("extensions", contract.DefaultExtensions, "File extensions to scan")
		c.Flags().Bool("respect-gitignore", true, "Skip files matched by the project .gitignore")
		c.Flags().Bool("watch", false, "Rerun after every settled batch of file changes")
	}

	// Build flags shared by benchmark and loop
	for _, c := range []*cobra.Command{benchmarkCmd, loopCmd} {
		c.Flags().String("build-command", contract.DefaultBuildCommand, "Command used to build the project")
		c.Flags().Bool("skip-build", false, "Do not run the build; the build time section reports it as skipped")
	}

	benchmarkCmd.Flags().String("dev-command", contract.DefaultDevCommand, "Command used to start the dev server for --serve")
	benchmarkCmd.Flags().String("audit-url", "", "URL to audit with lighthouse (audit is skipped when empty)")
	benchmarkCmd.Flags().Bool("serve", false, "Start the dev server before auditing (requires --audit-url)")
	benchmarkCmd.Flags().String("serve-wait", contract.DefaultServeWait.String(), "How long to wait for the dev server to come up")

	coverageCmd.Flags().String("coverage-file", contract.DefaultCoverageFile, "Path of the coverage summary, relative to the project root")

	loopCmd.Flags().Int("iterations", contract.DefaultIterations, "Number of loop iterations")
	loopCmd.Flags().String("sleep", contract.DefaultLoopSleep.String(), "Pause between iterations")
	loopCmd.Flags().Bool("with-benchmark", false, "Run the benchmark every second iteration")

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
