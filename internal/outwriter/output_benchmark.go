package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
)

// PrintBenchmarkResults outputs the benchmark report, dispatching based on the output format configured.
func PrintBenchmarkResults(report *schema.BenchmarkReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBenchmarkCSV(w, report)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBenchmarkText(w, report, cfg)
		}, "Wrote summary")
	}
}

// writeBenchmarkCSV writes one row per benchmark section.
func writeBenchmarkCSV(w io.Writer, report *schema.BenchmarkReport) error {
	m := report.Metrics
	rows := [][]string{
		{"build_time", strconv.FormatBool(m.BuildTime.Success), m.BuildTime.Error, fmt.Sprintf("%.2fs", m.BuildTime.BuildTimeSeconds)},
		{"bundle_size", strconv.FormatBool(m.BundleSize.Success), m.BundleSize.Error, m.BundleSize.TotalSize},
		{"spr_efficiency", strconv.FormatBool(m.KernelEfficiency.Success), m.KernelEfficiency.Error, fmt.Sprintf("%.1f%%", m.KernelEfficiency.Efficiency)},
		{"api_routes", strconv.FormatBool(m.APIRoutes.Success), m.APIRoutes.Error, strconv.Itoa(m.APIRoutes.RouteCount)},
		{"lighthouse", strconv.FormatBool(m.Lighthouse.Success), m.Lighthouse.Error, fmt.Sprintf("%.1f", m.Lighthouse.Average())},
		{"rating", "true", "", strconv.Itoa(report.Rating.Score)},
	}
	return writeCSVWithHeader(w, []string{"section", "success", "error", "value"}, func(cw *csv.Writer) error {
		for _, r := range rows {
			if err := cw.Write(r); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeBenchmarkText(w io.Writer, report *schema.BenchmarkReport, cfg *contract.Config) error {
	p := newPalette(cfg.UseColors)
	lw := &lineWriter{w: w}
	m := report.Metrics

	lw.printf("%s", p.title("=== Benchmark Results ==="))
	if m.BuildTime.Success {
		lw.printf("Build Time: %.2fs", m.BuildTime.BuildTimeSeconds)
	} else {
		lw.printf("Build Time: %s", p.warn(m.BuildTime.Error))
	}
	if m.BundleSize.Success {
		lw.printf("Bundle Size: %s (Client: %s, Server: %s)", m.BundleSize.TotalSize, m.BundleSize.ClientSize, m.BundleSize.ServerSize)
	} else {
		lw.printf("Bundle Size: %s", p.warn(m.BundleSize.Error))
	}
	if k := m.KernelEfficiency; k.Success {
		lw.printf("SPR Efficiency: %.1f%% (%.1f%% token reduction)", k.Efficiency, k.TokenReduction)
		lw.printf("SPR Kernels: %.1fKB with %d concepts", float64(k.TotalKernelBytes)/1024, k.TotalConcepts)
	} else {
		lw.printf("SPR Efficiency: %s", p.warn(k.Error))
	}
	if l := m.Lighthouse; l.Success {
		lw.printf("Lighthouse Scores: Performance: %d, Accessibility: %d, Best Practices: %d, SEO: %d",
			l.Performance, l.Accessibility, l.BestPractices, l.SEO)
	} else {
		lw.printf("Lighthouse: %s", p.warn(l.Error))
	}
	if a := m.APIRoutes; a.Success {
		lw.printf("API Routes: %d (%s)", a.RouteCount, a.Recommendation)
	} else {
		lw.printf("API Routes: %s", p.warn(a.Error))
	}

	lw.printf("%s", p.ok(fmt.Sprintf("Overall Rating: %s (%d/100)", report.Rating.Rating, report.Rating.Score)))
	if len(report.Recommendations) > 0 {
		lw.printf("")
		lw.printf("Recommendations:")
		for _, r := range report.Recommendations {
			lw.printf("  • %s", r)
		}
	}
	lw.printf("")
	lw.printf("Benchmark results saved to: %s", cfg.StatePath(contract.BenchmarkReportName))
	return lw.err
}
