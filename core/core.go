// Package core has core logic for pattern extraction, prediction and the
// project tooling built around it.
package core

import (
	"context"
	"time"

	"github.com/huangsam/patternscan/core/algo"
	"github.com/huangsam/patternscan/core/rules"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/outwriter"
	"github.com/huangsam/patternscan/schema"
	"go.uber.org/zap"
)

// ExtractPatterns runs the pattern pipeline, writes the report and appends
// the run to the bounded pattern history.
func ExtractPatterns(ctx context.Context, cfg *contract.Config, rs *rules.RuleSet, mgr contract.CacheManager) (*schema.ScanOutput, error) {
	output, err := runPatternScan(ctx, cfg, rs, mgr)
	if err != nil {
		return nil, err
	}
	if err := outwriter.WriteJSONFile(cfg.ReportFile, output.Report); err != nil {
		return nil, err
	}

	entry := schema.HistoryEntry{
		Timestamp:     output.Report.Timestamp,
		RunID:         output.Report.RunID,
		TotalFiles:    output.Report.Stats.TotalFiles,
		TotalPatterns: output.Report.Stats.TotalPatterns,
		Suggestions:   len(output.Report.Suggestions),
	}
	if err := outwriter.AppendBoundedLog(cfg.StatePath(contract.PatternHistoryName), entry, contract.HistoryLimit, cfg.Log()); err != nil {
		contract.LogWarn("Cannot append pattern history", err)
	}
	return output, nil
}

// ExecutePatternScan runs the pattern pipeline and prints results to stdout.
// It serves as the main entry point for the 'patterns' command. With watch
// enabled it reruns after every settled batch of changes until ctx is done.
func ExecutePatternScan(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	rs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return err
	}

	runOnce := func(ctx context.Context) error {
		output, err := ExtractPatterns(ctx, cfg, rs, mgr)
		if err != nil {
			return err
		}
		cfg.Log().Info("Pattern scan finished",
			zap.Int("files", output.Report.Stats.TotalFiles),
			zap.Int("skipped", output.Skipped),
			zap.Duration("duration", output.Duration))
		if shouldSuppressOutput(ctx) {
			return nil
		}
		ranked := algo.RankPatterns(output.Report.RecurringPatterns, 0)
		return outwriter.NewOutWriter().WritePatterns(output, ranked, cfg)
	}

	if err := runOnce(ctx); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}
	return NewWatcher(cfg, cfg.ScanDirs).Run(ctx, func(ctx context.Context, changed []string) error {
		cfg.Log().Info("Changes detected, rescanning", zap.Int("paths", len(changed)))
		return runOnce(ctx)
	})
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
