package cmd

import (
	"github.com/huangsam/patternscan/core"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/spf13/cobra"
)

// patternsCmd runs the pattern extraction pipeline.
var patternsCmd = &cobra.Command{
	Use:   "patterns [project-path]",
	Short: "Count recurring code patterns and suggest extractions.",
	Long: `Walk the Nuxt source directories and count recurring code constructs per file role.

Every file under the scan directories is matched against the pattern rules
(component, API, page and performance patterns). Per file role, a pattern is
reported when it appears in at least three files or at least five times in
total. The report carries optimization suggestions when:
- Shared props appear in 3+ components (extract a composable)
- Composables are used 10+ times across components (review reactivity)
- Auth checks appear in 2+ API routes (extract auth middleware)
- Database calls appear 5+ times in API routes (review queries and caching)
- More than 10 files were categorized (lazy loading and dynamic imports)

The report is written to <state-dir>/pattern_analysis.json and every run is
appended to a bounded history log next to it. When a history backend is
configured, runs and frequency tables are also recorded there.

Examples:
  # Analyze the current project
  patternscan patterns

  # Analyze another project and print JSON
  patternscan patterns ../shop --output json

  # Use a custom rule set and keep rescanning on change
  patternscan patterns --rules rules.yaml --watch

  # Export the frequency table to CSV
  patternscan patterns --output csv --output-file patterns.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePatternScan(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run pattern analysis", err)
		}
	},
}
