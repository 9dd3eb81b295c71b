package cmd

import (
	"github.com/huangsam/patternscan/core"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/spf13/cobra"
)

// predictCmd predicts the next development needs of a project.
var predictCmd = &cobra.Command{
	Use:   "predict [project-path]",
	Short: "Predict upcoming development needs from project structure and recent activity.",
	Long: `Probe the project layout and the files changed in the last 24 hours to predict
what the project will need next.

Predictions are grouped by priority and each one cites the knowledge kernel
that covers it. Kernels cited by high and medium predictions are recommended
for activation.

The report is written to <state-dir>/predictions.json.

Examples:
  # Predict for the current project
  patternscan predict

  # Machine-readable output
  patternscan predict --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: projectSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePredict(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot predict development needs", err)
		}
	},
}
