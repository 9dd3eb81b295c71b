package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/patternscan/core/scan"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/outwriter"
	"github.com/huangsam/patternscan/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// kernelBaselineBytes approximates the project files a session would read
// without any kernel loaded.
const kernelBaselineBytes = 150 * 1024

// Messages reported by benchmark sections that could not run.
const (
	msgBuildSkipped       = "Build skipped"
	msgNoBuildOutput      = "Build output not found. Run build first."
	msgNoKernels          = "SPR kernels not found"
	msgNoAPIRoutes        = "No API routes found"
	msgAuditSkipped       = "Lighthouse audit skipped (no audit URL configured)"
	msgAuditUnavailable   = "Lighthouse not available or server failed to start"
	msgNotApplicableBytes = "N/A"
)

// benchmarkNextSteps are attached to every benchmark report.
var benchmarkNextSteps = []string{
	"Run npm run auto:optimize to apply performance improvements",
	"Use npm run spr:evolve to enhance SPR kernels",
	"Monitor metrics with npm run loop:continuous",
}

// MeasureBuildTime removes previous build output and times the build command.
func MeasureBuildTime(ctx context.Context, cfg *contract.Config, runner contract.CommandRunner) schema.BuildTiming {
	if cfg.SkipBuild {
		return schema.BuildTiming{SectionResult: schema.SectionResult{Error: msgBuildSkipped}}
	}
	name, args, err := contract.SplitCommand(cfg.BuildCommand)
	if err != nil {
		return schema.BuildTiming{SectionResult: schema.SectionResult{Error: err.Error()}}
	}

	for _, dir := range []string{".nuxt", ".output"} {
		if err := os.RemoveAll(filepath.Join(cfg.RepoPath, dir)); err != nil {
			cfg.Log().Warn("Cannot clean build directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	start := time.Now()
	if _, err := runner.Run(ctx, cfg.RepoPath, name, args...); err != nil {
		return schema.BuildTiming{SectionResult: schema.SectionResult{Error: err.Error()}}
	}
	elapsed := time.Since(start)
	return schema.BuildTiming{
		SectionResult:    schema.SectionResult{Success: true},
		BuildTimeMs:      elapsed.Milliseconds(),
		BuildTimeSeconds: roundTo(elapsed.Seconds(), 2),
	}
}

// dirSize sums the size of every regular file below dir.
func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// AnalyzeBundleSize sizes the build output and its client and server halves.
func AnalyzeBundleSize(ctx context.Context, root string) schema.BundleSize {
	outputDir := filepath.Join(root, ".output")
	if scan.Probe(outputDir) != schema.Present {
		return schema.BundleSize{SectionResult: schema.SectionResult{Error: msgNoBuildOutput}}
	}

	targets := []string{outputDir, filepath.Join(outputDir, "public"), filepath.Join(outputDir, "server")}
	sizes := make([]int64, len(targets))
	found := make([]bool, len(targets))

	g, _ := errgroup.WithContext(ctx)
	for i, dir := range targets {
		g.Go(func() error {
			if scan.Probe(dir) != schema.Present {
				return nil
			}
			n, err := dirSize(dir)
			if err != nil {
				return fmt.Errorf("cannot size %s: %w", dir, err)
			}
			sizes[i], found[i] = n, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schema.BundleSize{SectionResult: schema.SectionResult{Error: err.Error()}}
	}

	label := func(i int) string {
		if !found[i] {
			return msgNotApplicableBytes
		}
		return contract.FormatBytes(sizes[i])
	}
	return schema.BundleSize{
		SectionResult: schema.SectionResult{Success: true},
		TotalBytes:    sizes[0],
		ClientBytes:   sizes[1],
		ServerBytes:   sizes[2],
		TotalSize:     label(0),
		ClientSize:    label(1),
		ServerSize:    label(2),
	}
}

// countLeadingDash counts lines that start with a dash before any indentation.
func countLeadingDash(content string) int {
	n := 0
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(line, "-") {
			n++
		}
	}
	return n
}

// MeasureKernelEfficiency compares the total kernel size against the baseline.
func MeasureKernelEfficiency(kernelsDir string) schema.KernelEfficiency {
	if scan.Probe(kernelsDir) != schema.Present {
		return schema.KernelEfficiency{SectionResult: schema.SectionResult{Error: msgNoKernels}}
	}

	var totalBytes int64
	concepts := 0
	for _, kernel := range KnownKernels {
		data, err := os.ReadFile(KernelPath(kernelsDir, kernel))
		if err != nil {
			continue
		}
		totalBytes += int64(len(data))
		concepts += countLeadingDash(string(data))
	}

	ratio := roundTo(float64(totalBytes)/kernelBaselineBytes, 3)
	kernelTokens := int(math.Ceil(float64(totalBytes) / bytesPerToken))
	fileTokens := int(math.Ceil(float64(kernelBaselineBytes) / bytesPerToken))
	return schema.KernelEfficiency{
		SectionResult:    schema.SectionResult{Success: true},
		TotalKernelBytes: totalBytes,
		TotalConcepts:    concepts,
		CompressionRatio: ratio,
		Efficiency:       roundTo((1-ratio)*100, 1),
		KernelTokens:     kernelTokens,
		FileTokens:       fileTokens,
		TokenReduction:   roundTo((1-float64(kernelTokens)/float64(fileTokens))*100, 1),
	}
}

// AnalyzeAPIRoutes counts .ts and .js route handlers under server/api.
func AnalyzeAPIRoutes(root string) schema.APIRoutes {
	apiDir := filepath.Join(root, "server", "api")
	if scan.Probe(apiDir) != schema.Present {
		return schema.APIRoutes{SectionResult: schema.SectionResult{Error: msgNoAPIRoutes}}
	}

	count := 0
	err := filepath.WalkDir(apiDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if ext := filepath.Ext(path); ext == ".ts" || ext == ".js" {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return schema.APIRoutes{SectionResult: schema.SectionResult{Error: err.Error()}}
	}

	routes := schema.APIRoutes{
		SectionResult:  schema.SectionResult{Success: true},
		RouteCount:     count,
		Status:         "No API routes",
		Recommendation: "Good API structure",
	}
	if count > 0 {
		routes.Status = "API routes detected"
	}
	if count > 5 {
		routes.Recommendation = "Consider middleware optimization"
	}
	return routes
}

// lighthouseCategories mirrors the category scores in a lighthouse JSON report.
type lighthouseCategories struct {
	Performance   struct{ Score float64 } `json:"performance"`
	Accessibility struct{ Score float64 } `json:"accessibility"`
	BestPractices struct{ Score float64 } `json:"best-practices"`
	SEO           struct{ Score float64 } `json:"seo"`
}

// lighthouseReport accepts both the bare report and the one nested under "lhr".
type lighthouseReport struct {
	Categories *lighthouseCategories `json:"categories"`
	LHR        *struct {
		Categories *lighthouseCategories `json:"categories"`
	} `json:"lhr"`
}

// ParseLighthouse extracts the four category scores as percentages.
func ParseLighthouse(data []byte) (schema.AuditScores, error) {
	var report lighthouseReport
	if err := json.Unmarshal(data, &report); err != nil {
		return schema.AuditScores{}, fmt.Errorf("cannot parse lighthouse report: %w", err)
	}
	cats := report.Categories
	if cats == nil && report.LHR != nil {
		cats = report.LHR.Categories
	}
	if cats == nil {
		return schema.AuditScores{}, errors.New("lighthouse report has no categories")
	}
	pct := func(score float64) int { return int(math.Round(score * 100)) }
	return schema.AuditScores{
		SectionResult: schema.SectionResult{Success: true},
		Performance:   pct(cats.Performance.Score),
		Accessibility: pct(cats.Accessibility.Score),
		BestPractices: pct(cats.BestPractices.Score),
		SEO:           pct(cats.SEO.Score),
	}, nil
}

// RunLighthouseAudit audits the configured URL, optionally serving the app first.
func RunLighthouseAudit(ctx context.Context, cfg *contract.Config, runner contract.CommandRunner) schema.AuditScores {
	failed := func(msg string) schema.AuditScores {
		return schema.AuditScores{SectionResult: schema.SectionResult{Error: msg}}
	}
	if cfg.AuditURL == "" {
		return failed(msgAuditSkipped)
	}
	if _, err := runner.LookPath("lighthouse"); err != nil {
		return failed(msgAuditUnavailable)
	}

	if cfg.Serve {
		name, args, err := contract.SplitCommand(cfg.DevCommand)
		if err != nil {
			return failed(err.Error())
		}
		stop, err := runner.Start(ctx, cfg.RepoPath, name, args...)
		if err != nil {
			cfg.Log().Warn("Dev server failed to start", zap.Error(err))
			return failed(msgAuditUnavailable)
		}
		defer func() { _ = stop() }()

		select {
		case <-ctx.Done():
			return failed(ctx.Err().Error())
		case <-time.After(cfg.ServeWait):
		}
	}

	out, err := runner.Run(ctx, cfg.RepoPath, "lighthouse", cfg.AuditURL,
		"--output=json", "--quiet", "--chrome-flags=--headless --no-sandbox")
	if err != nil {
		cfg.Log().Warn("Lighthouse audit failed", zap.Error(err))
		return failed(msgAuditUnavailable)
	}
	scores, err := ParseLighthouse(out)
	if err != nil {
		return failed(err.Error())
	}
	return scores
}

// RateBenchmark deducts points for slow builds, weak audit scores and
// inefficient kernels. Sections that did not succeed are not penalized.
func RateBenchmark(m schema.BenchmarkMetrics) schema.Rating {
	score := 100
	if m.BuildTime.Success {
		switch {
		case m.BuildTime.BuildTimeSeconds > 60:
			score -= 20
		case m.BuildTime.BuildTimeSeconds > 30:
			score -= 10
		}
	}
	if m.Lighthouse.Success {
		switch avg := m.Lighthouse.Average(); {
		case avg < 70:
			score -= 30
		case avg < 85:
			score -= 15
		}
	}
	if m.KernelEfficiency.Success {
		switch {
		case m.KernelEfficiency.Efficiency < 70:
			score -= 20
		case m.KernelEfficiency.Efficiency < 80:
			score -= 10
		}
	}

	var label string
	switch {
	case score >= 95:
		label = "★★★★★ Excellent"
	case score >= 80:
		label = "★★★★☆ Good"
	case score >= 65:
		label = "★★★☆☆ Fair"
	case score >= 50:
		label = "★★☆☆☆ Poor"
	default:
		label = "★☆☆☆☆ Needs Work"
	}
	return schema.Rating{Score: score, Rating: label}
}

// BenchmarkRecommendations derives advice from the measured sections.
func BenchmarkRecommendations(m schema.BenchmarkMetrics) []string {
	recs := []string{}
	if m.BuildTime.Success && m.BuildTime.BuildTimeSeconds > 30 {
		recs = append(recs, "Optimize build time with better caching or fewer dependencies")
	}
	if m.KernelEfficiency.Success && m.KernelEfficiency.Efficiency > 90 {
		recs = append(recs, "Excellent SPR efficiency - continue using SPR-first approach")
	}
	if m.Lighthouse.Success && m.Lighthouse.Performance < 90 {
		recs = append(recs, "Improve performance score with lazy loading and optimization")
	}
	return recs
}

// Benchmark runs every section in order and writes the benchmark report.
// Sections fail independently; only a failed report write is an error.
func Benchmark(ctx context.Context, cfg *contract.Config, runner contract.CommandRunner) (*schema.BenchmarkReport, error) {
	log := cfg.Log()
	var m schema.BenchmarkMetrics

	log.Info("Measuring build performance")
	m.BuildTime = MeasureBuildTime(ctx, cfg, runner)
	log.Info("Analyzing bundle size")
	m.BundleSize = AnalyzeBundleSize(ctx, cfg.RepoPath)
	log.Info("Measuring kernel efficiency")
	m.KernelEfficiency = MeasureKernelEfficiency(cfg.KernelsDir)
	m.APIRoutes = AnalyzeAPIRoutes(cfg.RepoPath)
	log.Info("Running lighthouse audit", zap.String("url", cfg.AuditURL))
	m.Lighthouse = RunLighthouseAudit(ctx, cfg, runner)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &schema.BenchmarkReport{
		Timestamp:       time.Now().UTC().Format(time.RFC3339Nano),
		Metrics:         m,
		Rating:          RateBenchmark(m),
		Recommendations: BenchmarkRecommendations(m),
		NextSteps:       benchmarkNextSteps,
	}
	if err := outwriter.WriteJSONFile(cfg.StatePath(contract.BenchmarkReportName), report); err != nil {
		return nil, err
	}
	return report, nil
}

// ExecuteBenchmark runs the benchmark and prints the results.
func ExecuteBenchmark(ctx context.Context, cfg *contract.Config, runner contract.CommandRunner) error {
	report, err := Benchmark(ctx, cfg, runner)
	if err != nil {
		return err
	}
	if shouldSuppressOutput(ctx) {
		return nil
	}
	return outwriter.NewOutWriter().WriteBenchmark(report, cfg)
}

// roundTo rounds v to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
