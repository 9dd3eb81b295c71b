package schema

import "time"

// RunSummary is what a finished pattern run reports to the history store.
type RunSummary struct {
	TotalFiles    int
	TotalPatterns int
	Suggestions   int
}

// RunRecord represents a row from the patternscan_runs table.
type RunRecord struct {
	RunID         int64
	RunUUID       string
	Root          string
	StartTime     time.Time
	EndTime       *time.Time
	DurationMs    *int32
	TotalFiles    *int32
	TotalPatterns *int32
	Suggestions   *int32
	ConfigParams  *string
}

// FrequencyRecord represents a row from the patternscan_frequencies table.
type FrequencyRecord struct {
	RunID            int64
	Category         string
	PatternKey       string
	FilesContaining  int32
	TotalOccurrences int32
	Significance     int32
	Examples         string // JSON-encoded example list
	RecordedAt       time.Time
}
