// Package algo has the suggestion rules and pattern ranking.
package algo

import (
	"fmt"

	"github.com/huangsam/patternscan/schema"
)

// Thresholds used by the suggestion rules.
const (
	SharedPropsMinFiles       = 3
	ComposableUsageMinTotal   = 10
	AuthChecksMinFiles        = 2
	DBQueriesMinTotal         = 5
	LargeCodebaseMinFileCount = 10 // exclusive
)

// NextSteps are attached to every pattern report.
var NextSteps = []string{
	"Review high-priority optimization suggestions",
	"Run npm run auto:optimize to apply improvements",
	"Use npm run spr:generate to update SPR kernels with new patterns",
}

// SuggestionInput is what the suggestion rules read.
type SuggestionInput struct {
	Recurring        map[schema.Category]map[string]schema.PatternSummary
	CategorizedFiles int
}

// suggestionRule emits a suggestion when its condition holds.
type suggestionRule func(in SuggestionInput) (schema.Suggestion, bool)

// suggestionRules are evaluated in order.
var suggestionRules = []suggestionRule{
	func(in SuggestionInput) (schema.Suggestion, bool) {
		p, ok := lookup(in, schema.ComponentCategory, "componentPatterns.sharedProps")
		if !ok || p.Frequency < SharedPropsMinFiles {
			return schema.Suggestion{}, false
		}
		return schema.Suggestion{
			Type:        schema.ComposableExtraction,
			Priority:    schema.HighPriority,
			Description: fmt.Sprintf("Extract shared props into composable (found in %d components)", p.Frequency),
			Impact:      "Reduce code duplication and improve type safety",
			Action:      "Create shared composable for common prop definitions",
		}, true
	},
	func(in SuggestionInput) (schema.Suggestion, bool) {
		p, ok := lookup(in, schema.ComponentCategory, "componentPatterns.composableUsage")
		if !ok || p.TotalOccurrences < ComposableUsageMinTotal {
			return schema.Suggestion{}, false
		}
		return schema.Suggestion{
			Type:        schema.ComposableOptimization,
			Priority:    schema.MediumPriority,
			Description: "Heavy composable usage detected - consider performance optimization",
			Impact:      "Improve component rendering performance",
			Action:      "Review composable memoization and reactivity patterns",
		}, true
	},
	func(in SuggestionInput) (schema.Suggestion, bool) {
		p, ok := lookup(in, schema.APICategory, "apiPatterns.authChecks")
		if !ok || p.Frequency < AuthChecksMinFiles {
			return schema.Suggestion{}, false
		}
		return schema.Suggestion{
			Type:        schema.MiddlewareExtraction,
			Priority:    schema.HighPriority,
			Description: fmt.Sprintf("Authentication logic found in %d API routes", p.Frequency),
			Impact:      "Centralize auth logic and improve security",
			Action:      "Create shared authentication middleware",
		}, true
	},
	func(in SuggestionInput) (schema.Suggestion, bool) {
		p, ok := lookup(in, schema.APICategory, "apiPatterns.dbQueries")
		if !ok || p.TotalOccurrences < DBQueriesMinTotal {
			return schema.Suggestion{}, false
		}
		return schema.Suggestion{
			Type:        schema.DatabaseOptimization,
			Priority:    schema.MediumPriority,
			Description: "Multiple database queries detected",
			Impact:      "Optimize query performance and connection pooling",
			Action:      "Review database query patterns and implement caching",
		}, true
	},
	func(in SuggestionInput) (schema.Suggestion, bool) {
		if in.CategorizedFiles <= LargeCodebaseMinFileCount {
			return schema.Suggestion{}, false
		}
		return schema.Suggestion{
			Type:        schema.BundleOptimization,
			Priority:    schema.MediumPriority,
			Description: fmt.Sprintf("Large codebase (%d files) may benefit from optimization", in.CategorizedFiles),
			Impact:      "Reduce bundle size and improve load times",
			Action:      "Implement lazy loading and dynamic imports",
		}, true
	},
}

// lookup returns a recurring pattern summary. Missing data is not an error.
func lookup(in SuggestionInput, category schema.Category, key string) (schema.PatternSummary, bool) {
	table, ok := in.Recurring[category]
	if !ok {
		return schema.PatternSummary{}, false
	}
	p, ok := table[key]
	return p, ok
}

// Suggest evaluates every rule in order. The result is never nil.
func Suggest(in SuggestionInput) []schema.Suggestion {
	out := []schema.Suggestion{}
	for _, rule := range suggestionRules {
		if s, ok := rule(in); ok {
			out = append(out, s)
		}
	}
	return out
}
