package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/patternscan/schema"
	"go.uber.org/zap"
)

// Default values for configuration.
const (
	DefaultStateDir     = ".cdcs"
	DefaultKernelsDir   = "spr_kernels"
	DefaultCoverageFile = "coverage/coverage-summary.json"
	DefaultBuildCommand = "npm run build"
	DefaultDevCommand   = "npm run dev"
	DefaultIterations   = 5
	MaxIterations       = 1000
	DefaultLoopSleep    = 3 * time.Second
	DefaultServeWait    = 10 * time.Second
	HistoryLimit        = 50
)

// Report file names written under the state directory.
const (
	PatternReportName    = "pattern_analysis.json"
	PatternHistoryName   = "pattern_history.json"
	PredictionReportName = "predictions.json"
	ActivationLogName    = "activation_log.json"
	ActiveKernelName     = "active_kernel.txt"
	BenchmarkReportName  = "benchmark_results.json"
	CoverageReportName   = "coverage_report.json"
	LoopReportName       = "development_loop.json"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DefaultScanDirs are the project subdirectories walked by the collector.
var DefaultScanDirs = []string{"components", "pages", "server/api", "composables", "layouts", "middleware", "plugins"}

// DefaultExtensions is the file extension allow-list.
var DefaultExtensions = []string{".vue", ".ts", ".js"}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for every command.
// This struct is the "final, validated" config.
type Config struct {
	RepoPath         string // Absolute project root
	StateDir         string // Absolute directory for reports and logs
	ReportFile       string // Absolute path of the pattern report
	Workers          int
	Output           schema.OutputMode
	OutputFile       string
	Width            int // Terminal width override (0 = auto-detect)
	UseColors        bool
	Excludes         []string
	ScanDirs         []string
	Extensions       []string
	RulesFile        string
	RespectGitignore bool
	Watch            bool

	KernelsDir string
	Kernel     string

	BuildCommand string
	DevCommand   string
	SkipBuild    bool
	AuditURL     string
	Serve        bool
	ServeWait    time.Duration

	CoverageFile string

	Iterations    int
	LoopSleep     time.Duration
	WithBenchmark bool

	LogLevel  string
	LogFormat string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Logger *zap.Logger // Injected by cmd; nil means the process logger
}

// Log returns the injected logger or the process logger.
func (c *Config) Log() *zap.Logger {
	if c == nil || c.Logger == nil {
		return Logger()
	}
	return c.Logger
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers          int    `mapstructure:"workers"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	Exclude          string `mapstructure:"exclude"`
	StateDir         string `mapstructure:"state-dir"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	KernelsDir       string `mapstructure:"kernels-dir"`

	// --- Fields from patternsCmd.Flags() ---
	ReportFile       string   `mapstructure:"report-file"`
	Rules            string   `mapstructure:"rules"`
	ScanDirs         []string `mapstructure:"scan-dirs"`
	Extensions       []string `mapstructure:"extensions"`
	RespectGitignore bool     `mapstructure:"respect-gitignore"`
	Watch            bool     `mapstructure:"watch"`

	// --- Fields from benchmarkCmd.Flags() ---
	BuildCommand string `mapstructure:"build-command"`
	DevCommand   string `mapstructure:"dev-command"`
	SkipBuild    bool   `mapstructure:"skip-build"`
	AuditURL     string `mapstructure:"audit-url"`
	Serve        bool   `mapstructure:"serve"`
	ServeWait    string `mapstructure:"serve-wait"`

	// --- Fields from coverageCmd.Flags() ---
	CoverageFile string `mapstructure:"coverage-file"`

	// --- Fields from loopCmd.Flags() ---
	Iterations    int    `mapstructure:"iterations"`
	Sleep         string `mapstructure:"sleep"`
	WithBenchmark bool   `mapstructure:"with-benchmark"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Excludes = slices.Clone(c.Excludes)
	clone.ScanDirs = slices.Clone(c.ScanDirs)
	clone.Extensions = slices.Clone(c.Extensions)
	return &clone
}

// WithRoot returns a copy of the Config re-rooted at root.
// Paths under the old root follow the new root unless they were set explicitly.
func (c *Config) WithRoot(root string) (*Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve root %q: %w", root, err)
	}
	clone := c.Clone()
	if c.StateDir == filepath.Join(c.RepoPath, DefaultStateDir) {
		clone.StateDir = filepath.Join(abs, DefaultStateDir)
	}
	if c.ReportFile == filepath.Join(c.RepoPath, DefaultStateDir, PatternReportName) {
		clone.ReportFile = filepath.Join(clone.StateDir, PatternReportName)
	}
	if c.KernelsDir == filepath.Join(c.RepoPath, DefaultKernelsDir) {
		clone.KernelsDir = filepath.Join(abs, DefaultKernelsDir)
	}
	if c.CoverageFile == filepath.Join(c.RepoPath, DefaultCoverageFile) {
		clone.CoverageFile = filepath.Join(abs, DefaultCoverageFile)
	}
	clone.RepoPath = abs
	return clone, nil
}

// StatePath returns the absolute path of a file under the state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := resolvePaths(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// SQLite files must differ so cache clears never wipe history
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.RulesFile = input.Rules
	cfg.RespectGitignore = input.RespectGitignore
	cfg.Watch = input.Watch
	cfg.BuildCommand = strings.TrimSpace(input.BuildCommand)
	cfg.DevCommand = strings.TrimSpace(input.DevCommand)
	cfg.SkipBuild = input.SkipBuild
	cfg.AuditURL = input.AuditURL
	cfg.Serve = input.Serve
	cfg.WithBenchmark = input.WithBenchmark

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be console or json", input.LogFormat)
	}

	if input.Iterations <= 0 || input.Iterations > MaxIterations {
		return fmt.Errorf("iterations must be greater than 0 and cannot exceed %d (received %d)", MaxIterations, input.Iterations)
	}
	cfg.Iterations = input.Iterations

	if cfg.Serve && cfg.AuditURL == "" {
		return fmt.Errorf("--serve requires --audit-url")
	}
	if cfg.BuildCommand == "" {
		cfg.BuildCommand = DefaultBuildCommand
	}
	if cfg.DevCommand == "" {
		cfg.DevCommand = DefaultDevCommand
	}

	cfg.ScanDirs = cleanList(input.ScanDirs, DefaultScanDirs, false)
	cfg.Extensions = cleanList(input.Extensions, DefaultExtensions, true)

	// User excludes are appended to a short list of build artifacts
	cfg.Excludes = []string{"node_modules/", ".nuxt/", ".output/", "dist/", "*.min.js", "*.d.ts"}
	for p := range strings.SplitSeq(input.Exclude, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Excludes = append(cfg.Excludes, trimmed)
		}
	}
	return nil
}

// processDurations parses the human-entered durations.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	var err error
	cfg.LoopSleep, err = parseDurationOr(input.Sleep, DefaultLoopSleep)
	if err != nil {
		return fmt.Errorf("invalid --sleep value: %w", err)
	}
	cfg.ServeWait, err = parseDurationOr(input.ServeWait, DefaultServeWait)
	if err != nil {
		return fmt.Errorf("invalid --serve-wait value: %w", err)
	}
	return nil
}

// resolvePaths makes every configured path absolute relative to the project root.
// A missing root is not an error: scanning it yields an empty result.
func resolvePaths(cfg *Config, input *ConfigRawInput) error {
	root := input.RepoPathStr
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("cannot resolve project root %q: %w", root, err)
	}
	cfg.RepoPath = filepath.Clean(abs)
	if info, statErr := os.Stat(cfg.RepoPath); statErr == nil && !info.IsDir() {
		return fmt.Errorf("project root %q is not a directory", cfg.RepoPath)
	}

	cfg.StateDir = resolveUnder(cfg.RepoPath, input.StateDir, DefaultStateDir)
	cfg.ReportFile = resolveUnder(cfg.RepoPath, input.ReportFile, filepath.Join(cfg.StateDir, PatternReportName))
	cfg.KernelsDir = resolveUnder(cfg.RepoPath, input.KernelsDir, DefaultKernelsDir)
	cfg.CoverageFile = resolveUnder(cfg.RepoPath, input.CoverageFile, DefaultCoverageFile)
	return nil
}

// resolveUnder returns value (or fallback when empty) made absolute under root.
func resolveUnder(root, value, fallback string) string {
	if value == "" {
		value = fallback
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// parseDurationOr parses s, returning fallback for an empty string.
// Bare integers are read as seconds.
func parseDurationOr(s string, fallback time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("duration cannot be negative: %s", s)
		}
		return d, nil
	}
	d, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0, fmt.Errorf("cannot parse duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative: %s", s)
	}
	return d, nil
}

// cleanList trims and deduplicates values, falling back to defaults when nothing remains.
// Extensions are normalized to start with a dot.
func cleanList(values, defaults []string, extensions bool) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if extensions && !strings.HasPrefix(part, ".") {
				part = "." + part
			}
			if !extensions {
				part = strings.Trim(filepath.ToSlash(part), "/")
			}
			if !slices.Contains(out, part) {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return slices.Clone(defaults)
	}
	return out
}
