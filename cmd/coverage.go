package cmd

import (
	"errors"
	"os"

	"github.com/huangsam/patternscan/core"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/spf13/cobra"
)

// coverageCmd validates test coverage against fixed thresholds.
var coverageCmd = &cobra.Command{
	Use:   "coverage [project-path]",
	Short: "Validate test coverage and the unit/integration test split.",
	Long: `Read the coverage summary and check it against the coverage requirements
(lines 80%, functions 80%, branches 70%, statements 80%).

Unit and integration test files under test/unit and test/integration are
counted; fewer than 70% unit tests fails validation.

The report is written to <state-dir>/coverage_report.json. The command exits
with status 1 when validation fails, which makes it usable as a CI gate.

Examples:
  # Validate after running the coverage suite
  npm run test:coverage && patternscan coverage

  # Read a summary from a different location
  patternscan coverage --coverage-file reports/coverage-summary.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: projectSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		err := core.ExecuteCoverage(rootCtx, cfg)
		if errors.Is(err, core.ErrCoverageFailed) {
			// The report already lists every failure
			os.Exit(1)
		}
		if err != nil {
			contract.LogFatal("Cannot validate coverage", err)
		}
	},
}
