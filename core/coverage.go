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

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/outwriter"
	"github.com/huangsam/patternscan/schema"
)

// Coverage errors callers branch on.
var (
	ErrCoverageMissing = errors.New("coverage file not found. Run 'npm run test:coverage' first")
	ErrCoverageFailed  = errors.New("coverage validation failed")
)

// CoverageRequirements are the minimum percentages per metric.
var CoverageRequirements = schema.CoverageMetrics{Lines: 80, Functions: 80, Branches: 70, Statements: 80}

// Distribution thresholds in percent.
const (
	minUnitPercent        = 70
	maxIntegrationPercent = 30
)

// coverageSummary is the subset of an istanbul json-summary report we read.
type coverageSummary struct {
	Total struct {
		Lines      struct{ Pct float64 } `json:"lines"`
		Functions  struct{ Pct float64 } `json:"functions"`
		Branches   struct{ Pct float64 } `json:"branches"`
		Statements struct{ Pct float64 } `json:"statements"`
	} `json:"total"`
}

// ReadCoverageSummary loads the coverage percentages from a summary file.
func ReadCoverageSummary(path string) (schema.CoverageMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return schema.CoverageMetrics{}, ErrCoverageMissing
		}
		return schema.CoverageMetrics{}, fmt.Errorf("cannot read coverage file: %w", err)
	}
	var summary coverageSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return schema.CoverageMetrics{}, fmt.Errorf("cannot parse coverage file %s: %w", path, err)
	}
	return schema.CoverageMetrics{
		Lines:      summary.Total.Lines.Pct,
		Functions:  summary.Total.Functions.Pct,
		Branches:   summary.Total.Branches.Pct,
		Statements: summary.Total.Statements.Pct,
	}, nil
}

// countTestFiles counts *.test.ts files directly inside dir. A missing
// directory counts as zero.
func countTestFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".test.ts") {
			n++
		}
	}
	return n
}

// AnalyzeTestDistribution counts unit and integration test files.
func AnalyzeTestDistribution(root string) schema.TestDistribution {
	d := schema.TestDistribution{
		Unit:        countTestFiles(filepath.Join(root, "test", "unit")),
		Integration: countTestFiles(filepath.Join(root, "test", "integration")),
	}
	d.Total = d.Unit + d.Integration
	if d.Total > 0 {
		d.UnitPercent = int(math.Round(float64(d.Unit) / float64(d.Total) * 100))
		d.IntegrationPercent = int(math.Round(float64(d.Integration) / float64(d.Total) * 100))
	}
	return d
}

// CoverageFailures lists every metric below its requirement followed by a
// distribution failure when unit tests are underrepresented.
func CoverageFailures(m schema.CoverageMetrics, d schema.TestDistribution) []string {
	failures := []string{}
	checks := []struct {
		name       string
		value, req float64
	}{
		{"lines", m.Lines, CoverageRequirements.Lines},
		{"functions", m.Functions, CoverageRequirements.Functions},
		{"branches", m.Branches, CoverageRequirements.Branches},
		{"statements", m.Statements, CoverageRequirements.Statements},
	}
	for _, c := range checks {
		if c.value < c.req {
			failures = append(failures, fmt.Sprintf("%s: %s%% < %s%% required", c.name, formatPct(c.value), formatPct(c.req)))
		}
	}
	if d.UnitPercent < minUnitPercent {
		failures = append(failures, fmt.Sprintf("Unit test coverage too low: %d%% (should be ~80%%)", d.UnitPercent))
	}
	return failures
}

// CoverageRecommendations derives advice from the metrics and distribution.
func CoverageRecommendations(m schema.CoverageMetrics, d schema.TestDistribution, failures []string) []string {
	recs := []string{}
	if m.Lines < CoverageRequirements.Lines {
		recs = append(recs, "Add more unit tests to improve line coverage")
	}
	if m.Functions < CoverageRequirements.Functions {
		recs = append(recs, "Test more functions, especially edge cases and error paths")
	}
	if m.Branches < CoverageRequirements.Branches {
		recs = append(recs, "Add tests for conditional logic and error handling branches")
	}
	if d.UnitPercent < minUnitPercent {
		recs = append(recs,
			"Focus on unit tests - they should comprise ~80% of your test suite",
			"Unit tests are faster and provide better feedback for development")
	}
	if d.IntegrationPercent > maxIntegrationPercent {
		recs = append(recs,
			"Consider converting some integration tests to unit tests",
			"Integration tests should focus on critical workflows (~20% of suite)")
	}
	if len(failures) > 0 {
		recs = append(recs,
			"Use npm run test:watch for continuous testing during development",
			"Focus on testing SPR functions and prediction algorithms first",
			"Integration tests should cover auto-predict and auto-optimize workflows")
	}
	return recs
}

// CoverageRating labels a passing report by its average coverage.
func CoverageRating(m schema.CoverageMetrics) string {
	avg := m.Average()
	switch {
	case avg >= 90:
		return fmt.Sprintf("★★★★★ Excellent coverage (%.1f%%)", avg)
	case avg >= 85:
		return fmt.Sprintf("★★★★☆ Good coverage (%.1f%%)", avg)
	default:
		return fmt.Sprintf("★★★☆☆ Adequate coverage (%.1f%%)", avg)
	}
}

// ValidateCoverage builds the coverage report and writes it to the state directory.
// A failing report is still returned and written.
func ValidateCoverage(_ context.Context, cfg *contract.Config) (*schema.CoverageReport, error) {
	metrics, err := ReadCoverageSummary(cfg.CoverageFile)
	if err != nil {
		return nil, err
	}
	dist := AnalyzeTestDistribution(cfg.RepoPath)
	failures := CoverageFailures(metrics, dist)

	report := &schema.CoverageReport{
		Timestamp:       time.Now().UTC().Format(time.RFC3339Nano),
		Passed:          len(failures) == 0,
		Coverage:        metrics,
		Requirements:    CoverageRequirements,
		Distribution:    dist,
		Failures:        failures,
		Recommendations: CoverageRecommendations(metrics, dist, failures),
	}
	if report.Passed {
		report.Rating = CoverageRating(metrics)
	}
	if err := outwriter.WriteJSONFile(cfg.StatePath(contract.CoverageReportName), report); err != nil {
		return nil, err
	}
	return report, nil
}

// ExecuteCoverage validates coverage, prints the result and returns
// ErrCoverageFailed when any threshold is missed.
func ExecuteCoverage(ctx context.Context, cfg *contract.Config) error {
	report, err := ValidateCoverage(ctx, cfg)
	if err != nil {
		return err
	}
	if !shouldSuppressOutput(ctx) {
		if err := outwriter.NewOutWriter().WriteCoverage(report, cfg); err != nil {
			return err
		}
	}
	if !report.Passed {
		return ErrCoverageFailed
	}
	return nil
}

// formatPct prints a percentage without trailing zeros.
func formatPct(v float64) string {
	return fmt.Sprintf("%g", v)
}
