package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/huangsam/patternscan/core/rules"
	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/outwriter"
	"github.com/huangsam/patternscan/schema"
	"go.uber.org/zap"
)

// ErrLoopFailed is returned when at least half of the loop iterations failed.
var ErrLoopFailed = errors.New("development loop failed")

// Loop thresholds.
const (
	healthPassScore    = 70
	benchmarkGoodScore = 80
	accuracyFloor      = 50
	accuracyDecayPerHr = 10
)

var nuxtConfigFiles = []string{"nuxt.config.ts", "nuxt.config.js", "nuxt.config.mjs"}

// CheckHealth scores the project setup out of 100.
func CheckHealth(cfg *contract.Config) schema.HealthCheck {
	h := schema.HealthCheck{Score: 100, Issues: []string{}}

	hasConfig := slices.ContainsFunc(nuxtConfigFiles, func(name string) bool {
		return scan.Probe(filepath.Join(cfg.RepoPath, name)) == schema.Present
	})
	if !hasConfig {
		h.Score -= 50
		h.Issues = append(h.Issues, "No Nuxt config found")
	}

	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	data, err := os.ReadFile(filepath.Join(cfg.RepoPath, "package.json"))
	if err == nil {
		err = json.Unmarshal(data, &pkg)
	}
	switch {
	case err != nil:
		h.Score -= 20
		h.Issues = append(h.Issues, "Could not read package.json")
	case pkg.Dependencies["nuxt"] == "" && pkg.DevDependencies["nuxt"] == "":
		h.Score -= 30
		h.Issues = append(h.Issues, "Nuxt not found in dependencies")
	}

	if scan.Probe(cfg.KernelsDir) != schema.Present {
		h.Score -= 20
		h.Issues = append(h.Issues, "SPR kernels not found")
	}
	return h
}

// AnalyzePredictionAccuracy estimates prediction freshness from the age of
// the last prediction report. Accuracy decays by ten points per hour down to 50.
func AnalyzePredictionAccuracy(path string, now time.Time) schema.PredictionAccuracy {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.PredictionAccuracy{Message: "No predictions to analyze"}
	}
	var report schema.PredictionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return schema.PredictionAccuracy{Message: "Could not analyze predictions"}
	}
	ts, err := time.Parse(time.RFC3339Nano, report.Timestamp)
	if err != nil {
		return schema.PredictionAccuracy{Message: "Could not analyze predictions"}
	}

	ageHours := now.Sub(ts).Hours()
	accuracy := math.Max(accuracyFloor, 100-ageHours*accuracyDecayPerHr)
	return schema.PredictionAccuracy{
		Accuracy:         int(math.Round(accuracy)),
		PredictionsCount: len(report.Predictions.High),
		Age:              fmt.Sprintf("%.1f hours", ageHours),
	}
}

// LoopSucceeded reports whether a loop with the given counts exits cleanly.
func LoopSucceeded(failures, iterations int) bool {
	return failures == 0 || float64(failures) < float64(iterations)/2
}

// successRate formats the share of iterations not offset by failures.
func successRate(iterations, failures int) string {
	if iterations == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(iterations-failures)/float64(iterations)*100)
}

// DevLoop repeatedly predicts, checks health, extracts patterns and
// optionally benchmarks the project, keeping a timestamped log.
type DevLoop struct {
	cfg    *contract.Config
	rs     *rules.RuleSet
	mgr    contract.CacheManager
	runner contract.CommandRunner
	now    func() time.Time

	// OnIteration receives the status after every iteration.
	OnIteration func(schema.LoopIteration)

	iterations   int
	improvements int
	failures     int
	entries      []string
}

// NewDevLoop creates a development loop for the configured project.
func NewDevLoop(cfg *contract.Config, rs *rules.RuleSet, mgr contract.CacheManager, runner contract.CommandRunner) *DevLoop {
	return &DevLoop{
		cfg:     cfg,
		rs:      rs,
		mgr:     mgr,
		runner:  runner,
		now:     time.Now,
		entries: []string{},
	}
}

// record appends a timestamped line to the loop log.
func (l *DevLoop) record(msg string) {
	l.entries = append(l.entries, fmt.Sprintf("[%s] %s", l.now().UTC().Format(time.RFC3339Nano), msg))
	l.cfg.Log().Info(msg)
}

// phase records the outcome of a phase and counts failures.
func (l *DevLoop) phase(err error, ok, failed string) {
	if err != nil {
		l.failures++
		l.record(failed)
		l.cfg.Log().Warn("Loop phase failed", zap.String("phase", failed), zap.Error(err))
		return
	}
	l.record(ok)
}

// Iterate runs one iteration. total is zero in watch mode.
func (l *DevLoop) Iterate(ctx context.Context, index, total int) schema.LoopIteration {
	l.iterations++
	status := schema.LoopIteration{Index: index, Total: total}

	_, err := Predict(ctx, l.cfg)
	l.phase(err, "Prediction phase completed successfully", "Prediction phase failed")

	status.Health = CheckHealth(l.cfg)
	if status.Health.Score >= healthPassScore {
		l.record("Health check passed")
	} else {
		l.failures++
		l.record(fmt.Sprintf("Health check failed (%d/100)", status.Health.Score))
	}

	_, err = ExtractPatterns(ctx, l.cfg, l.rs, l.mgr)
	l.phase(err, "Pattern extraction completed", "Pattern extraction failed")

	if l.cfg.WithBenchmark && index%2 == 0 {
		report, err := Benchmark(ctx, l.cfg, l.runner)
		switch {
		case err != nil:
			l.phase(err, "", "Performance benchmarking failed")
		case report.Rating.Score >= benchmarkGoodScore:
			l.improvements++
			l.record(fmt.Sprintf("Excellent performance achieved: %d/100", report.Rating.Score))
		default:
			l.record(fmt.Sprintf("Performance needs improvement: %d/100", report.Rating.Score))
		}
		if err == nil {
			status.Benchmark = &report.Rating
		}
	}

	status.Accuracy = AnalyzePredictionAccuracy(l.cfg.StatePath(contract.PredictionReportName), l.now())
	status.Iterations = l.iterations
	status.Improvements = l.improvements
	status.Failures = l.failures
	status.SuccessRate = successRate(l.iterations, l.failures)
	if l.OnIteration != nil {
		l.OnIteration(status)
	}
	return status
}

// Summary builds the final summary from the counters so far.
func (l *DevLoop) Summary() schema.LoopSummary {
	s := schema.LoopSummary{
		Timestamp:    l.now().UTC().Format(time.RFC3339Nano),
		Iterations:   l.iterations,
		Improvements: l.improvements,
		Failures:     l.failures,
		SuccessRate:  successRate(l.iterations, l.failures),
	}
	n := float64(l.iterations)
	switch {
	case float64(l.improvements) > n/2:
		s.Recommendations = append(s.Recommendations, "✓ System is improving rapidly - continue current approach")
	case float64(l.failures) > n/3:
		s.Recommendations = append(s.Recommendations, "⚠ High failure rate - review Nuxt setup and SPR kernels")
	default:
		s.Recommendations = append(s.Recommendations, "→ System is stable - consider increasing automation level")
	}
	if l.failures == 0 {
		s.Recommendations = append(s.Recommendations, "✓ Perfect run - all phases successful")
	}
	return s
}

// Run executes the configured number of iterations, or one iteration per
// change batch in watch mode, then writes the loop report. A cancelled
// context ends the loop early and the partial report is still written.
func (l *DevLoop) Run(ctx context.Context) (*schema.LoopReport, error) {
	var runErr error
	if l.cfg.Watch {
		l.record("Starting Nuxt development loop in watch mode")
		dirs := slices.Concat(activityDirs, l.cfg.ScanDirs)
		slices.Sort(dirs)
		dirs = slices.Compact(dirs)
		runErr = NewWatcher(l.cfg, dirs).Run(ctx, func(ctx context.Context, _ []string) error {
			l.Iterate(ctx, l.iterations+1, 0)
			return nil
		})
	} else {
		total := l.cfg.Iterations
		l.record(fmt.Sprintf("Starting Nuxt development loop with %d iterations", total))
		for i := 1; i <= total; i++ {
			if ctx.Err() != nil {
				break
			}
			l.Iterate(ctx, i, total)
			if i < total {
				if err := sleepContext(ctx, l.cfg.LoopSleep); err != nil {
					break
				}
			}
		}
	}
	l.record("Development loop completed")

	report := &schema.LoopReport{Summary: l.Summary(), DetailedLog: l.entries}
	if err := outwriter.WriteJSONFile(l.cfg.StatePath(contract.LoopReportName), report); err != nil {
		return nil, err
	}
	if runErr != nil {
		return report, runErr
	}
	return report, ctx.Err()
}

// ExecuteLoop runs the development loop and prints progress and the summary.
// It returns ErrLoopFailed when failures reach half of the iterations.
func ExecuteLoop(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, runner contract.CommandRunner) error {
	rs, err := rules.Load(cfg.RulesFile)
	if err != nil {
		return err
	}
	loop := NewDevLoop(cfg, rs, mgr, runner)
	w := outwriter.NewOutWriter()
	quiet := shouldSuppressOutput(ctx)
	if !quiet {
		loop.OnIteration = func(it schema.LoopIteration) {
			if err := w.WriteLoopIteration(it, cfg); err != nil {
				contract.LogWarn("Cannot print loop status", err)
			}
		}
	}

	report, err := loop.Run(ctx)
	if report == nil {
		return err
	}
	if !quiet {
		if werr := w.WriteLoop(report, cfg); werr != nil {
			return werr
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if !LoopSucceeded(report.Summary.Failures, report.Summary.Iterations) {
		return ErrLoopFailed
	}
	return nil
}
