package core

import (
	"context"

	"github.com/huangsam/patternscan/internal/contract"
)

// Context keys for run options
type contextKey string

const (
	suppressOutputKey contextKey = "suppressOutput"
	cacheManagerKey   contextKey = "cacheManager"
	historyRunIDKey   contextKey = "historyRunID"
)

// WithSuppressOutput marks the context so console summaries are not printed.
// The development loop and the MCP server run the pipeline this way.
func WithSuppressOutput(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressOutputKey, true)
}

// shouldSuppressOutput returns whether console output should be suppressed
func shouldSuppressOutput(ctx context.Context) bool {
	val := ctx.Value(suppressOutputKey)
	if val == nil {
		return false // default: print summaries
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// contextWithCacheManager stores the cache manager for worker goroutines.
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the stored cache manager, if any.
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	mgr, _ := ctx.Value(cacheManagerKey).(contract.CacheManager)
	return mgr
}

// withHistoryRunID stores the history run ID of the current pattern run.
func withHistoryRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, historyRunIDKey, runID)
}

// getHistoryRunID returns the history run ID from context.
func getHistoryRunID(ctx context.Context) (int64, bool) {
	runID, ok := ctx.Value(historyRunIDKey).(int64)
	return runID, ok
}
