// Package parquet exports recorded pattern runs to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/patternscan/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one recorded pattern run. It maps to the patternscan_runs table.
type Run struct {
	RunID   int64  `parquet:"run_id,snappy"`
	RunUUID string `parquet:"run_uuid,snappy"`

	// Root is the project directory that was scanned
	Root string `parquet:"root,snappy"`

	StartTime time.Time  `parquet:"start_time,snappy"`
	EndTime   *time.Time `parquet:"end_time,optional,snappy"`

	DurationMs    *int32 `parquet:"run_duration_ms,optional,snappy"`
	TotalFiles    *int32 `parquet:"total_files,optional,snappy"`
	TotalPatterns *int32 `parquet:"total_patterns,optional,snappy"`
	Suggestions   *int32 `parquet:"suggestions,optional,snappy"`

	// ConfigParams contains the JSON-encoded run configuration
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Frequency is one reported frequency entry of a run. It maps to the
// patternscan_frequencies table.
type Frequency struct {
	RunID            int64     `parquet:"run_id,snappy"`
	Category         string    `parquet:"category,dict,snappy"`
	PatternKey       string    `parquet:"pattern_key,snappy"`
	FilesContaining  int32     `parquet:"files_containing,snappy"`
	TotalOccurrences int32     `parquet:"total_occurrences,snappy"`
	Significance     int32     `parquet:"significance,snappy"`
	Examples         string    `parquet:"examples,snappy"` // JSON array of relative paths
	RecordedAt       time.Time `parquet:"recorded_at,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file at outputPath.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFrequenciesParquet writes frequency rows to a Parquet file at outputPath.
func WriteFrequenciesParquet(data []Frequency, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	// Close flushes the footer, so its error matters
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ConvertRunRecords converts store rows to their Parquet form.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			Root:          record.Root,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			DurationMs:    record.DurationMs,
			TotalFiles:    record.TotalFiles,
			TotalPatterns: record.TotalPatterns,
			Suggestions:   record.Suggestions,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertFrequencyRecords converts store rows to their Parquet form.
func ConvertFrequencyRecords(records []schema.FrequencyRecord) []Frequency {
	result := make([]Frequency, len(records))
	for i, record := range records {
		result[i] = Frequency{
			RunID:            record.RunID,
			Category:         record.Category,
			PatternKey:       record.PatternKey,
			FilesContaining:  record.FilesContaining,
			TotalOccurrences: record.TotalOccurrences,
			Significance:     record.Significance,
			Examples:         record.Examples,
			RecordedAt:       record.RecordedAt,
		}
	}
	return result
}
