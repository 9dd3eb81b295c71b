package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patternscan/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation.
func validInput(root string) *ConfigRawInput {
	return &ConfigRawInput{
		RepoPathStr:      root,
		Workers:          4,
		Output:           "text",
		Color:            "yes",
		LogLevel:         "warn",
		LogFormat:        "console",
		CacheBackend:     "none",
		Iterations:       DefaultIterations,
		RespectGitignore: true,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid workers (zero)", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "invalid workers (negative)", mutate: func(in *ConfigRawInput) { in.Workers = -1 }, expectError: true},
		{name: "invalid output format", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "uppercase output format", mutate: func(in *ConfigRawInput) { in.Output = "JSON" }},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid log level", mutate: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "invalid log format", mutate: func(in *ConfigRawInput) { in.LogFormat = "xml" }, expectError: true},
		{name: "invalid iterations (zero)", mutate: func(in *ConfigRawInput) { in.Iterations = 0 }, expectError: true},
		{name: "invalid iterations (too large)", mutate: func(in *ConfigRawInput) { in.Iterations = MaxIterations + 1 }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{name: "invalid history backend", mutate: func(in *ConfigRawInput) { in.HistoryBackend = "redis" }, expectError: true},
		{name: "serve without audit url", mutate: func(in *ConfigRawInput) { in.Serve = true }, expectError: true},
		{name: "invalid sleep", mutate: func(in *ConfigRawInput) { in.Sleep = "soon" }, expectError: true},
		{name: "negative sleep", mutate: func(in *ConfigRawInput) { in.Sleep = "-3s" }, expectError: true},
		{
			name: "mysql without connection",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
			},
			expectError: true,
		},
		{
			name: "mysql with connection",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
				in.CacheDBConnect = "user:pass@tcp(localhost:3306)/patternscan"
			},
		},
		{
			name: "same sqlite file for cache and history",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.HistoryBackend = "sqlite"
			},
			expectError: false,
		},
		{
			name: "explicit identical sqlite files",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.CacheDBConnect = "/tmp/shared.db"
				in.HistoryBackend = "sqlite"
				in.HistoryDBConnect = "/tmp/shared.db"
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(t.TempDir())
			tt.mutate(input)

			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput(root)))

	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.RepoPath)
	assert.Equal(t, filepath.Join(abs, ".cdcs"), cfg.StateDir)
	assert.Equal(t, filepath.Join(abs, ".cdcs", "pattern_analysis.json"), cfg.ReportFile)
	assert.Equal(t, filepath.Join(abs, "spr_kernels"), cfg.KernelsDir)
	assert.Equal(t, DefaultScanDirs, cfg.ScanDirs)
	assert.Equal(t, DefaultExtensions, cfg.Extensions)
	assert.Equal(t, DefaultBuildCommand, cfg.BuildCommand)
	assert.Equal(t, DefaultLoopSleep, cfg.LoopSleep)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Contains(t, cfg.Excludes, "node_modules/")
}

func TestProcessAndValidateMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does-not-exist")
	cfg := &Config{}
	assert.NoError(t, ProcessAndValidate(cfg, validInput(root)))
}

func TestProcessAndValidateListsAndDurations(t *testing.T) {
	input := validInput(t.TempDir())
	input.Extensions = []string{"vue, ts", ".vue"}
	input.ScanDirs = []string{"/components/", "server/api"}
	input.Exclude = "legacy/, *.spec.ts"
	input.Sleep = "2"
	input.ServeWait = "1m"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, []string{".vue", ".ts"}, cfg.Extensions)
	assert.Equal(t, []string{"components", "server/api"}, cfg.ScanDirs)
	assert.Contains(t, cfg.Excludes, "legacy/")
	assert.Contains(t, cfg.Excludes, "*.spec.ts")
	assert.Equal(t, 2*time.Second, cfg.LoopSleep)
	assert.Equal(t, time.Minute, cfg.ServeWait)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/db", false},
		{schema.MySQLBackend, "user:pass@localhost/db", true},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=db", false},
		{schema.PostgreSQLBackend, "dbname=db", true},
		{schema.PostgreSQLBackend, "host=localhost", true},
		{schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}

func TestProcessProfilingConfig(t *testing.T) {
	var profile ProfileConfig
	require.NoError(t, ProcessProfilingConfig(&profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(&profile, "scan"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "scan", profile.Prefix)
}

func TestConfigCloneAndWithRoot(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput(root)))

	clone := cfg.Clone()
	clone.Extensions[0] = ".jsx"
	assert.Equal(t, ".vue", cfg.Extensions[0], "clone must not share slices")

	other := t.TempDir()
	moved, err := cfg.WithRoot(other)
	require.NoError(t, err)
	abs, _ := filepath.Abs(other)
	assert.Equal(t, abs, moved.RepoPath)
	assert.Equal(t, filepath.Join(abs, ".cdcs"), moved.StateDir)
	assert.Equal(t, filepath.Join(abs, ".cdcs", PatternReportName), moved.ReportFile)
	assert.Equal(t, filepath.Join(abs, ".cdcs", LoopReportName), moved.StatePath(LoopReportName))
	assert.Equal(t, filepath.Join(abs, DefaultKernelsDir), moved.KernelsDir)
	assert.Equal(t, filepath.Join(abs, DefaultCoverageFile), moved.CoverageFile)
}
