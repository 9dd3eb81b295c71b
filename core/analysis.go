package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/patternscan/core/agg"
	"github.com/huangsam/patternscan/core/algo"
	"github.com/huangsam/patternscan/core/rules"
	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
	"go.uber.org/zap"
)

// scanResult is what a worker reports for one file.
type scanResult struct {
	index  int
	record schema.FileRecord
	err    error
}

// runPatternScan performs the collect, match, aggregate and suggest steps.
func runPatternScan(ctx context.Context, cfg *contract.Config, rs *rules.RuleSet, mgr contract.CacheManager) (*schema.ScanOutput, error) {
	start := time.Now()
	log := cfg.Log()
	runUUID := uuid.NewString()

	// Add cache manager to context for use in worker goroutines
	ctx = contextWithCacheManager(ctx, mgr)

	// --- 0. Begin Run Tracking (if configured) ---
	var historyStore contract.HistoryStore
	if mgr != nil {
		historyStore = mgr.GetHistoryStore()
	}
	if historyStore != nil {
		configParams := map[string]any{
			"scan_dirs":         cfg.ScanDirs,
			"extensions":        cfg.Extensions,
			"rules_file":        cfg.RulesFile,
			"rules_fingerprint": rs.Fingerprint(),
			"workers":           cfg.Workers,
		}
		runID, err := historyStore.BeginRun(runUUID, cfg.RepoPath, start, configParams)
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else if runID > 0 {
			ctx = withHistoryRunID(ctx, runID)
		}
	}

	// --- 1. File Collection ---
	files, err := scan.Collect(ctx, cfg.RepoPath, scan.OptionsFromConfig(cfg), log)
	if err != nil {
		return nil, err
	}
	log.Debug("Collected files", zap.Int("count", len(files)), zap.String("root", cfg.RepoPath))

	// --- 2. Matching ---
	records, skipped := scanFiles(ctx, cfg, rs, files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// --- 3. Categorization and Aggregation ---
	tables := agg.NewTables()
	for _, r := range records {
		tables.Add(r)
	}
	recurring, totalPatterns := tables.Recurring()

	// --- 4. Suggestions ---
	suggestions := algo.Suggest(algo.SuggestionInput{
		Recurring:        recurring,
		CategorizedFiles: tables.CategorizedFiles(),
	})

	report := schema.PatternReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     runUUID,
		Stats: schema.ScanStats{
			TotalFiles:    len(records),
			TotalPatterns: totalPatterns,
			Categories:    tables.ActiveCategories(),
		},
		RecurringPatterns: recurring,
		Suggestions:       suggestions,
		NextSteps:         algo.NextSteps,
	}

	// --- 5. End Run Tracking ---
	if runID, ok := getHistoryRunID(ctx); ok && historyStore != nil {
		recordRunHistory(historyStore, runID, &report)
	}

	return &schema.ScanOutput{
		Records:  records,
		Report:   report,
		Duration: time.Since(start),
		Skipped:  skipped,
	}, nil
}

// scanFiles spawns cfg.Workers goroutines to build file records concurrently.
// Records keep collection order. Unreadable and non UTF-8 files are logged
// and counted as skipped.
func scanFiles(ctx context.Context, cfg *contract.Config, rs *rules.RuleSet, files []scan.File) ([]schema.FileRecord, int) {
	var store contract.CacheStore
	if mgr := cacheManagerFromContext(ctx); mgr != nil {
		store = mgr.GetScanStore()
	}

	// Initialize channels based on the number of files to be processed.
	fileCh := make(chan int, len(files))
	resultCh := make(chan scanResult, len(files))
	var wg sync.WaitGroup

	// Start worker pool
	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for i := range fileCh {
				if ctx.Err() != nil {
					resultCh <- scanResult{index: i, err: ctx.Err()}
					continue
				}
				record, err := scanFileCommon(store, cfg.Log(), cfg.RepoPath, rs, files[i])
				resultCh <- scanResult{index: i, record: record, err: err}
			}
		})
	}

	// Send files to worker channel
	for i := range files {
		fileCh <- i
	}
	close(fileCh)

	// Wait for all workers to finish processing
	wg.Wait()
	close(resultCh)

	// Place results by index so the output order matches collection order
	ordered := make([]*schema.FileRecord, len(files))
	skipped := 0
	for r := range resultCh {
		if r.err != nil {
			if !errors.Is(r.err, context.Canceled) && !errors.Is(r.err, context.DeadlineExceeded) {
				cfg.Log().Warn("Skipping file", zap.String("path", files[r.index].Rel), zap.Error(r.err))
			}
			skipped++
			continue
		}
		ordered[r.index] = &r.record
	}

	records := make([]schema.FileRecord, 0, len(files)-skipped)
	for _, r := range ordered {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records, skipped
}

// scanFileCommon builds the record of a single file, using the scan cache when available.
func scanFileCommon(store contract.CacheStore, log *zap.Logger, root string, rs *rules.RuleSet, file scan.File) (schema.FileRecord, error) {
	return cachedFileRecord(store, log, root, rs.Fingerprint(), file, func() (schema.FileRecord, error) {
		// Execute the required steps in order (Method Chaining)
		return NewFileRecordBuilder(rs, file).
			ReadContent().      // Loads the bytes
			ValidateEncoding(). // Rejects non UTF-8 content
			CountLines().       // Counts newline-separated lines
			MatchPatterns().    // Applies every rule
			Build()
	})
}

// recordRunHistory stores the reported frequencies and finalizes the run.
func recordRunHistory(store contract.HistoryStore, runID int64, report *schema.PatternReport) {
	now := time.Now()
	if err := store.RecordFrequencies(runID, now, report.RecurringPatterns); err != nil {
		contract.LogWarn("Run tracking failed for RecordFrequencies", err)
	}
	summary := schema.RunSummary{
		TotalFiles:    report.Stats.TotalFiles,
		TotalPatterns: report.Stats.TotalPatterns,
		Suggestions:   len(report.Suggestions),
	}
	if err := store.EndRun(runID, now, summary); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
