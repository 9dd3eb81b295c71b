package algo

import (
	"cmp"
	"slices"

	"github.com/huangsam/patternscan/schema"
)

// RankPatterns flattens recurring patterns and sorts them by significance in
// descending order, then by category order and key. A limit of zero or less
// returns every pattern.
func RankPatterns(recurring map[schema.Category]map[string]schema.PatternSummary, limit int) []schema.RankedPattern {
	var out []schema.RankedPattern
	for category, table := range recurring {
		for key, summary := range table {
			out = append(out, schema.RankedPattern{Category: category, Key: key, PatternSummary: summary})
		}
	}
	slices.SortFunc(out, func(a, b schema.RankedPattern) int {
		if c := cmp.Compare(b.Significance, a.Significance); c != 0 {
			return c
		}
		if c := cmp.Compare(categoryIndex(a.Category), categoryIndex(b.Category)); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if limit > 0 && len(out) > limit {
		return out[:limit]
	}
	return out
}

// categoryIndex returns the categorization order of c, or len(AllCategories) when unknown.
func categoryIndex(c schema.Category) int {
	if i := slices.Index(schema.AllCategories, c); i >= 0 {
		return i
	}
	return len(schema.AllCategories)
}
