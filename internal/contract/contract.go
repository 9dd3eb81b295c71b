// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/patternscan/schema"
)

// CommandRunner executes external tools such as the build command or the audit tool.
// This allows the benchmark logic to be tested without the tools installed.
type CommandRunner interface {
	// Run executes name with args inside dir and returns stdout.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)

	// LookPath reports whether the named executable can be found.
	LookPath(name string) (string, error)

	// Start launches a long-running process and returns a function that stops it.
	Start(ctx context.Context, dir string, name string, args ...string) (stop func() error, err error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetScanStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking pattern runs and their frequency tables.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(runUUID, root string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error

	// RecordFrequencies stores the reported frequency entries of a run
	RecordFrequencies(runID int64, recordedAt time.Time, patterns map[schema.Category]map[string]schema.PatternSummary) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllFrequencies returns every recorded frequency row
	GetAllFrequencies() ([]schema.FrequencyRecord, error)

	// Close closes the underlying connection
	Close() error
}
