package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
)

// PrintCoverageResults outputs the coverage report, dispatching based on the output format configured.
func PrintCoverageResults(report *schema.CoverageReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCoverageCSV(w, report)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCoverageText(w, report, cfg)
		}, "Wrote summary")
	}
}

// writeCoverageCSV writes one row per coverage metric.
func writeCoverageCSV(w io.Writer, report *schema.CoverageReport) error {
	c, r := report.Coverage, report.Requirements
	rows := []struct {
		name          string
		value, target float64
	}{
		{"lines", c.Lines, r.Lines},
		{"functions", c.Functions, r.Functions},
		{"branches", c.Branches, r.Branches},
		{"statements", c.Statements, r.Statements},
	}
	return writeCSVWithHeader(w, []string{"metric", "percent", "required", "passed"}, func(cw *csv.Writer) error {
		for _, row := range rows {
			rec := []string{
				row.name,
				strconv.FormatFloat(row.value, 'f', -1, 64),
				strconv.FormatFloat(row.target, 'f', -1, 64),
				strconv.FormatBool(row.value >= row.target),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeCoverageText(w io.Writer, report *schema.CoverageReport, cfg *contract.Config) error {
	p := newPalette(cfg.UseColors)
	lw := &lineWriter{w: w}
	c, d := report.Coverage, report.Distribution

	lw.printf("%s", p.title("=== Test Coverage Validation ==="))
	lw.printf("Coverage Summary:")
	lw.printf("  Lines: %g%%", c.Lines)
	lw.printf("  Functions: %g%%", c.Functions)
	lw.printf("  Branches: %g%%", c.Branches)
	lw.printf("  Statements: %g%%", c.Statements)
	lw.printf("Test Distribution:")
	lw.printf("  Unit tests: %d files (%d%%)", d.Unit, d.UnitPercent)
	lw.printf("  Integration tests: %d files (%d%%)", d.Integration, d.IntegrationPercent)
	if d.IntegrationPercent > 30 {
		lw.printf("%s", p.warn(fmt.Sprintf("Note: Integration tests are %d%% (target ~20%%)", d.IntegrationPercent)))
	}

	if report.Passed {
		lw.printf("%s", p.ok("✓ Coverage validation PASSED"))
		lw.printf("%s", p.ok("  All coverage thresholds met"))
		lw.printf("%s", p.ok("  80/20 test distribution maintained"))
		lw.printf("%s", p.ok(report.Rating))
	} else {
		lw.printf("%s", p.bad("✗ Coverage validation FAILED"))
		for _, f := range report.Failures {
			lw.printf("%s", p.bad("  "+f))
		}
		lw.printf("%s", p.warn("Recommendations:"))
		for _, r := range report.Recommendations {
			lw.printf("  • %s", r)
		}
	}
	lw.printf("Detailed report saved to: %s", cfg.StatePath(contract.CoverageReportName))
	return lw.err
}
