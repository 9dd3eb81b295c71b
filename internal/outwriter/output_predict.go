package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
)

// PrintPredictionResults outputs the prediction report, dispatching based on the output format configured.
func PrintPredictionResults(report *schema.PredictionReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionCSV(w, report)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePredictionText(w, report, cfg)
		}, "Wrote summary")
	}
}

func writePredictionCSV(w io.Writer, report *schema.PredictionReport) error {
	header := []string{"probability", "need", "reason", "action", "kernel"}
	bands := []struct {
		name  string
		preds []schema.Prediction
	}{
		{"high", report.Predictions.High},
		{"medium", report.Predictions.Medium},
		{"low", report.Predictions.Low},
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, b := range bands {
			for _, p := range b.preds {
				if err := cw.Write([]string{b.name, p.Need, p.Reason, p.Action, p.Kernel}); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
		}
		return nil
	})
}

func writePredictionText(w io.Writer, report *schema.PredictionReport, cfg *contract.Config) error {
	p := newPalette(cfg.UseColors)
	lw := &lineWriter{w: w}
	s := report.Structure

	lw.printf("%s", p.title("=== Prediction Results ==="))
	lw.printf("Structure: %d pages, %d components, %d API routes", s.PageCount, s.ComponentCount, s.APICount)
	lw.printf("Recent activity: %d files (%s)", len(report.Activity.RecentFiles), report.Activity.ModificationPattern)

	if len(report.Predictions.High) > 0 {
		lw.printf("")
		lw.printf("%s", p.bad("High Probability Needs:"))
		for i, pred := range report.Predictions.High {
			lw.printf("  %d. %s", i+1, pred.Need)
			lw.printf("     Reason: %s", pred.Reason)
			lw.printf("     Action: %s", pred.Action)
		}
	}
	if len(report.Predictions.Medium) > 0 {
		lw.printf("")
		lw.printf("%s", p.warn("Medium Probability Needs:"))
		for i, pred := range report.Predictions.Medium {
			lw.printf("  %d. %s", i+1, pred.Need)
			lw.printf("     Action: %s", pred.Action)
		}
	}
	if len(report.Recommendations) > 0 {
		lw.printf("")
		lw.printf("%s", p.ok("SPR Recommendations:"))
		for i, rec := range report.Recommendations {
			lw.printf("  %d. %s", i+1, rec.Action)
			lw.printf("     Command: %s", rec.Command)
		}
	}
	lw.printf("")
	lw.printf("Predictions saved to: %s", cfg.StatePath(contract.PredictionReportName))
	return lw.err
}
