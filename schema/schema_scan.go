package schema

import (
	"slices"
	"time"
)

// Caps on example strings kept per file and per frequency entry.
const (
	MaxFileExamples      = 3
	MaxFrequencyExamples = 5
)

// PatternHit is the match summary of one named pattern inside one file.
type PatternHit struct {
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

// FileRecord is the scan result for a single file.
// PatternHits maps pattern category -> pattern name -> hit, and only holds
// patterns that matched at least once.
type FileRecord struct {
	Path        string                           `json:"path"`
	ByteSize    int64                            `json:"size"`
	LineCount   int                              `json:"lines"`
	PatternHits map[string]map[string]PatternHit `json:"patterns"`
}

// PatternKey returns the "category.name" key used in frequency tables.
func PatternKey(category, name string) string {
	return category + "." + name
}

// FrequencyEntry accumulates statistics for one pattern key across files.
type FrequencyEntry struct {
	FilesContaining  int
	TotalOccurrences int
	Examples         []string // sorted, deduplicated, at most MaxFrequencyExamples
}

// AddExamples merges examples into the entry keeping the set sorted and capped.
// Keeping the smallest values makes the result independent of fold order.
func (e *FrequencyEntry) AddExamples(examples ...string) {
	for _, ex := range examples {
		idx, found := slices.BinarySearch(e.Examples, ex)
		if found {
			continue
		}
		if len(e.Examples) >= MaxFrequencyExamples && idx >= MaxFrequencyExamples {
			continue
		}
		e.Examples = slices.Insert(e.Examples, idx, ex)
		if len(e.Examples) > MaxFrequencyExamples {
			e.Examples = e.Examples[:MaxFrequencyExamples]
		}
	}
}

// Recurring reports whether the entry crosses the reporting threshold.
func (e FrequencyEntry) Recurring() bool {
	return e.FilesContaining >= 3 || e.TotalOccurrences >= 5
}

// PatternSummary is the serialized form of a recurring FrequencyEntry.
type PatternSummary struct {
	Frequency        int      `json:"frequency"`
	TotalOccurrences int      `json:"totalOccurrences"`
	Significance     int      `json:"significance"`
	Examples         []string `json:"examples"`
}

// Summarize converts the entry into its report form.
func (e FrequencyEntry) Summarize() PatternSummary {
	examples := e.Examples
	if examples == nil {
		examples = []string{}
	}
	return PatternSummary{
		Frequency:        e.FilesContaining,
		TotalOccurrences: e.TotalOccurrences,
		Significance:     e.FilesContaining * e.TotalOccurrences,
		Examples:         examples,
	}
}

// Suggestion is a recommendation produced by a suggestion rule.
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Priority    Priority       `json:"priority"`
	Description string         `json:"description"`
	Impact      string         `json:"impact"`
	Action      string         `json:"action"`
}

// ScanStats holds the summary counters of a pattern run.
type ScanStats struct {
	TotalFiles    int        `json:"totalFiles"`
	TotalPatterns int        `json:"totalPatterns"`
	Categories    []Category `json:"categories"`
}

// PatternReport is the document written after a pattern run.
type PatternReport struct {
	Timestamp         string                                 `json:"timestamp"`
	RunID             string                                 `json:"runId"`
	Stats             ScanStats                              `json:"stats"`
	RecurringPatterns map[Category]map[string]PatternSummary `json:"recurringPatterns"`
	Suggestions       []Suggestion                           `json:"optimizationSuggestions"`
	NextSteps         []string                               `json:"nextSteps"`
}

// HistoryEntry is one line of the bounded pattern history log.
type HistoryEntry struct {
	Timestamp     string `json:"timestamp"`
	RunID         string `json:"runId"`
	TotalFiles    int    `json:"totalFiles"`
	TotalPatterns int    `json:"totalPatterns"`
	Suggestions   int    `json:"suggestions"`
}

// ScanOutput is everything a pattern run produces before it is written out.
type ScanOutput struct {
	Records  []FileRecord
	Report   PatternReport
	Duration time.Duration
	Skipped  int
}

// RankedPattern is a recurring pattern flattened for tabular output.
type RankedPattern struct {
	Category Category `json:"category"`
	Key      string   `json:"pattern"`
	PatternSummary
}
