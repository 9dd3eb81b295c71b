package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
)

// PrintLoopIteration prints the status of one loop iteration. Iteration
// status is always plain text since it interleaves with long-running work.
func PrintLoopIteration(it schema.LoopIteration, cfg *contract.Config) error {
	if cfg.Output != schema.TextOut {
		return nil
	}
	return writeLoopIteration(os.Stdout, it, cfg)
}

func writeLoopIteration(w io.Writer, it schema.LoopIteration, cfg *contract.Config) error {
	p := newPalette(cfg.UseColors)
	lw := &lineWriter{w: w}

	if it.Total > 0 {
		lw.printf("%s", p.title(fmt.Sprintf("═══ Iteration %d/%d ═══", it.Index, it.Total)))
	} else {
		lw.printf("%s", p.title(fmt.Sprintf("═══ Iteration %d ═══", it.Index)))
	}

	if it.Health.Score >= 70 {
		lw.printf("%s", p.ok(fmt.Sprintf("  ✓ Health Score: %d/100", it.Health.Score)))
	} else {
		lw.printf("%s", p.bad(fmt.Sprintf("  ✗ Health Score: %d/100", it.Health.Score)))
		for _, issue := range it.Health.Issues {
			lw.printf("    Issue: %s", issue)
		}
	}
	if it.Benchmark != nil {
		if it.Benchmark.Score >= 80 {
			lw.printf("%s", p.ok(fmt.Sprintf("  ✓ Performance Score: %d/100 (%s)", it.Benchmark.Score, it.Benchmark.Rating)))
		} else {
			lw.printf("%s", p.warn(fmt.Sprintf("  ⚠ Performance Score: %d/100", it.Benchmark.Score)))
		}
	}
	if it.Accuracy.Accuracy >= 70 {
		lw.printf("%s", p.ok(fmt.Sprintf("  ✓ Prediction Accuracy: %d%%", it.Accuracy.Accuracy)))
	} else {
		lw.printf("%s", p.warn(fmt.Sprintf("  ⚠ Prediction Accuracy: %d%%", it.Accuracy.Accuracy)))
	}

	lw.printf("Loop Status:")
	lw.printf("  Iterations: %d", it.Iterations)
	lw.printf("  Improvements: %d", it.Improvements)
	lw.printf("  Failures: %d", it.Failures)
	lw.printf("  Success rate: %s", it.SuccessRate)
	return lw.err
}

// PrintLoopSummary outputs the loop report, dispatching based on the output format configured.
func PrintLoopSummary(report *schema.LoopReport, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut || cfg.Output == schema.CSVOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeLoopSummary(w, report, cfg)
	}, "Wrote summary")
}

func writeLoopSummary(w io.Writer, report *schema.LoopReport, cfg *contract.Config) error {
	p := newPalette(cfg.UseColors)
	lw := &lineWriter{w: w}
	s := report.Summary

	lw.printf("%s", p.title("═══ Nuxt Development Loop Summary ═══"))
	lw.printf("Iterations: %d", s.Iterations)
	lw.printf("Improvements: %d", s.Improvements)
	lw.printf("Failures: %d", s.Failures)
	lw.printf("Success Rate: %s", s.SuccessRate)
	lw.printf("%s", p.ok("Recommendations:"))
	for _, r := range s.Recommendations {
		lw.printf("  %s", r)
	}
	lw.printf("Detailed log saved to: %s", cfg.StatePath(contract.LoopReportName))
	return lw.err
}
