package cmd

import (
	"fmt"
	"testing"

	"github.com/huangsam/patternscan/core/algo"
	"github.com/stretchr/testify/assert"
)

func TestPatternsHelpMatchesSuggestionRules(t *testing.T) {
	long := patternsCmd.Long
	assert.Contains(t, long, "at least three files or at least five times")
	assert.Contains(t, long, fmt.Sprintf("Shared props appear in %d+ components", algo.SharedPropsMinFiles))
	assert.Contains(t, long, fmt.Sprintf("Composables are used %d+ times", algo.ComposableUsageMinTotal))
	assert.Contains(t, long, fmt.Sprintf("Auth checks appear in %d+ API routes", algo.AuthChecksMinFiles))
	assert.Contains(t, long, fmt.Sprintf("Database calls appear %d+ times", algo.DBQueriesMinTotal))
	assert.Contains(t, long, fmt.Sprintf("More than %d files were categorized", algo.LargeCodebaseMinFileCount))
}
