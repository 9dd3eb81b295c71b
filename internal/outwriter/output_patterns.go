package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintPatternResults outputs the pattern report, dispatching based on the output format configured.
func PrintPatternResults(output *schema.ScanOutput, ranked []schema.RankedPattern, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, output.Report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePatternCSV(w, ranked)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePatternText(w, output, ranked, cfg)
		}, "Wrote summary")
	}
	return nil
}

// writePatternCSV writes one row per recurring pattern.
func writePatternCSV(w io.Writer, ranked []schema.RankedPattern) error {
	header := []string{"rank", "category", "pattern", "files", "total_occurrences", "significance", "examples"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, p := range ranked {
			rec := []string{
				strconv.Itoa(i + 1),
				string(p.Category),
				p.Key,
				strconv.Itoa(p.Frequency),
				strconv.Itoa(p.TotalOccurrences),
				strconv.Itoa(p.Significance),
				strings.Join(p.Examples, "|"),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// writePatternText writes the console summary, the recurring pattern table
// and the numbered suggestions.
func writePatternText(w io.Writer, output *schema.ScanOutput, ranked []schema.RankedPattern, cfg *contract.Config) error {
	report := output.Report
	p := newPalette(cfg.UseColors)
	lw := &lineWriter{w: w}

	categories := make([]string, len(report.Stats.Categories))
	for i, c := range report.Stats.Categories {
		categories[i] = string(c)
	}

	lw.printf("%s", p.title("=== Nuxt Pattern Analysis ==="))
	lw.printf("Files analyzed: %d", report.Stats.TotalFiles)
	lw.printf("Recurring patterns found: %d", report.Stats.TotalPatterns)
	lw.printf("Active categories: %s", strings.Join(categories, ", "))
	if lw.err != nil {
		return lw.err
	}

	if len(ranked) > 0 {
		if err := writePatternTable(w, ranked, cfg); err != nil {
			return err
		}
	}

	lw.printf("")
	if len(report.Suggestions) == 0 {
		lw.printf("%s", p.ok("No major optimization opportunities detected"))
	} else {
		lw.printf("%s", p.warn("Optimization Opportunities:"))
		for i, s := range report.Suggestions {
			label := contract.GetPlainLabel(s.Priority)
			if cfg.UseColors {
				label = contract.GetColorLabel(s.Priority)
			}
			lw.printf("  %d. [%s] %s", i+1, label, s.Description)
			lw.printf("     Impact: %s", s.Impact)
			lw.printf("     Action: %s", s.Action)
		}
	}
	lw.printf("")
	lw.printf("Analysis saved to: %s", cfg.ReportFile)
	lw.printf("Scan completed in %v with %d workers (%d skipped). Cache backend: %s",
		output.Duration, cfg.Workers, output.Skipped, cfg.CacheBackend)
	return lw.err
}

// writePatternTable renders the recurring patterns with right-aligned counts.
func writePatternTable(w io.Writer, ranked []schema.RankedPattern, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Category", "Pattern", "Files", "Total", "Significance", "Examples"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	width := GetMaxTablePathWidth(cfg)
	var data [][]string
	for i, p := range ranked {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			string(p.Category),
			contract.TruncatePath(p.Key, width),
			strconv.Itoa(p.Frequency),
			strconv.Itoa(p.TotalOccurrences),
			strconv.Itoa(p.Significance),
			contract.TruncatePath(strings.Join(p.Examples, ", "), width),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
