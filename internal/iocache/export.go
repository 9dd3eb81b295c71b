package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/internal/parquet"
)

// ExecuteHistoryExport writes the recorded runs and frequencies of store to
// two Parquet files named after outputFile.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history tracking is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total frequency records: %d\n", status.TableSizes[frequenciesTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	frequencies, err := store.GetAllFrequencies()
	if err != nil {
		return fmt.Errorf("failed to retrieve frequencies: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	frequenciesFile := outputFile + ".frequencies.parquet"
	if err := parquet.WriteFrequenciesParquet(parquet.ConvertFrequencyRecords(frequencies), frequenciesFile); err != nil {
		return fmt.Errorf("failed to write frequencies: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d frequency records to: %s\n", len(frequencies), frequenciesFile)

	return nil
}
