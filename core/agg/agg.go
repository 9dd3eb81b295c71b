// Package agg has categorization and frequency aggregation logic.
package agg

import (
	"slices"
	"strings"

	"github.com/huangsam/patternscan/schema"
)

// Table maps a "patternCategory.patternName" key to its frequency entry.
type Table map[string]schema.FrequencyEntry

// categoryMarkers are the path substrings checked in order by Categorize.
var categoryMarkers = []struct {
	category schema.Category
	marker   string
}{
	{schema.ComponentCategory, "components/"},
	{schema.PageCategory, "pages/"},
	{schema.APICategory, "server/api"},
	{schema.ComposableCategory, "composables/"},
	{schema.LayoutCategory, "layouts/"},
	{schema.MiddlewareCategory, "middleware/"},
	{schema.PluginCategory, "plugins/"},
}

// Categorize assigns a root-relative slash path to the first category whose
// marker occurs in it. The boolean is false when no marker matches.
func Categorize(rel string) (schema.Category, bool) {
	for _, m := range categoryMarkers {
		if strings.Contains(rel, m.marker) {
			return m.category, true
		}
	}
	return "", false
}

// Fold adds one file's pattern hits into the table and returns it.
// A nil table is allocated on first use.
func Fold(t Table, rec schema.FileRecord) Table {
	if t == nil {
		t = make(Table)
	}
	for category, hits := range rec.PatternHits {
		for name, hit := range hits {
			if hit.Count <= 0 {
				continue
			}
			key := schema.PatternKey(category, name)
			entry := t[key]
			entry.FilesContaining++
			entry.TotalOccurrences += hit.Count
			entry.AddExamples(hit.Examples...)
			t[key] = entry
		}
	}
	return t
}

// Merge combines two tables into a new one. Merge is associative and
// commutative, so partial tables built by different workers can be joined
// in any order.
func Merge(a, b Table) Table {
	out := make(Table, max(len(a), len(b)))
	for _, src := range []Table{a, b} {
		for key, e := range src {
			entry := out[key]
			entry.FilesContaining += e.FilesContaining
			entry.TotalOccurrences += e.TotalOccurrences
			entry.AddExamples(e.Examples...)
			out[key] = entry
		}
	}
	return out
}

// Filter keeps the recurring entries of a table in their report form.
// The result is never nil.
func Filter(t Table) map[string]schema.PatternSummary {
	out := make(map[string]schema.PatternSummary)
	for key, e := range t {
		if e.Recurring() {
			out[key] = e.Summarize()
		}
	}
	return out
}

// Tables holds one frequency table per file category plus the number of
// files assigned to each category.
type Tables struct {
	ByCategory map[schema.Category]Table
	FileCounts map[schema.Category]int
}

// NewTables returns empty category tables.
func NewTables() *Tables {
	return &Tables{
		ByCategory: make(map[schema.Category]Table),
		FileCounts: make(map[schema.Category]int),
	}
}

// Add categorizes a record and folds it into its category table.
// It reports whether the record was categorized.
func (ts *Tables) Add(rec schema.FileRecord) bool {
	category, ok := Categorize(rec.Path)
	if !ok {
		return false
	}
	ts.FileCounts[category]++
	ts.ByCategory[category] = Fold(ts.ByCategory[category], rec)
	return true
}

// MergeTables joins two category table sets into a new one.
func MergeTables(a, b *Tables) *Tables {
	out := NewTables()
	for _, src := range []*Tables{a, b} {
		for category, n := range src.FileCounts {
			out.FileCounts[category] += n
		}
		for category, t := range src.ByCategory {
			out.ByCategory[category] = Merge(out.ByCategory[category], t)
		}
	}
	return out
}

// CategorizedFiles returns how many files were assigned to any category.
func (ts *Tables) CategorizedFiles() int {
	n := 0
	for _, c := range ts.FileCounts {
		n += c
	}
	return n
}

// ActiveCategories returns the categories that received at least one file,
// in categorization order.
func (ts *Tables) ActiveCategories() []schema.Category {
	out := make([]schema.Category, 0, len(ts.FileCounts))
	for _, c := range schema.AllCategories {
		if ts.FileCounts[c] > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Recurring applies the threshold filter to every active category.
// Active categories without recurring patterns map to an empty table.
// The second result counts all recurring entries.
func (ts *Tables) Recurring() (map[schema.Category]map[string]schema.PatternSummary, int) {
	out := make(map[schema.Category]map[string]schema.PatternSummary)
	total := 0
	for _, c := range ts.ActiveCategories() {
		filtered := Filter(ts.ByCategory[c])
		out[c] = filtered
		total += len(filtered)
	}
	return out, total
}

// SortedKeys returns the keys of a filtered table in lexical order.
func SortedKeys(m map[string]schema.PatternSummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
