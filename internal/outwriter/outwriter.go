// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePatterns prints the pattern report using the configured output format.
func (ow *OutWriter) WritePatterns(output *schema.ScanOutput, ranked []schema.RankedPattern, cfg *contract.Config) error {
	return PrintPatternResults(output, ranked, cfg)
}

// WritePredictions prints the prediction report using the configured output format.
func (ow *OutWriter) WritePredictions(report *schema.PredictionReport, cfg *contract.Config) error {
	return PrintPredictionResults(report, cfg)
}

// WriteActivation prints an activation summary showing at most maxConnections graph edges.
func (ow *OutWriter) WriteActivation(activation *schema.Activation, cfg *contract.Config, maxConnections int) error {
	return PrintActivationResult(activation, cfg, maxConnections)
}

// WriteBenchmark prints the benchmark report using the configured output format.
func (ow *OutWriter) WriteBenchmark(report *schema.BenchmarkReport, cfg *contract.Config) error {
	return PrintBenchmarkResults(report, cfg)
}

// WriteCoverage prints the coverage report using the configured output format.
func (ow *OutWriter) WriteCoverage(report *schema.CoverageReport, cfg *contract.Config) error {
	return PrintCoverageResults(report, cfg)
}

// WriteLoopIteration prints the status line block after one loop iteration.
func (ow *OutWriter) WriteLoopIteration(it schema.LoopIteration, cfg *contract.Config) error {
	return PrintLoopIteration(it, cfg)
}

// WriteLoop prints the final development loop summary.
func (ow *OutWriter) WriteLoop(report *schema.LoopReport, cfg *contract.Config) error {
	return PrintLoopSummary(report, cfg)
}

// GetMaxTablePathWidth calculates the maximum width for pattern keys and
// examples in table output based on terminal width.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Category + Files + Total + Significance with borders/padding
	baseWidth := 55

	available := (termWidth - baseWidth) / 2
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
