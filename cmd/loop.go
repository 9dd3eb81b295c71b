package cmd

import (
	"errors"
	"os"

	"github.com/huangsam/patternscan/core"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/spf13/cobra"
)

// loopCmd runs the development loop.
var loopCmd = &cobra.Command{
	Use:   "loop [project-path]",
	Short: "Run prediction, health checks and pattern extraction in a loop.",
	Long: `Repeat the development workflow for a number of iterations.

Each iteration:
1. Predicts development needs
2. Checks project health (Nuxt config, package.json, kernels)
3. Extracts recurring patterns
4. Benchmarks every second iteration with --with-benchmark
5. Scores how fresh the last prediction is

With --watch, one iteration runs per settled batch of file changes instead of
a fixed count. The summary is written to <state-dir>/development_loop.json and
the command exits with status 1 when at least half of the iterations failed.

Examples:
  # Three quick iterations
  patternscan loop --iterations 3 --sleep 1s

  # Include benchmarks
  patternscan loop --with-benchmark --skip-build

  # Iterate whenever the sources change
  patternscan loop --watch`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		err := core.ExecuteLoop(rootCtx, cfg, cacheManager, runner)
		if errors.Is(err, core.ErrLoopFailed) {
			os.Exit(1)
		}
		if err != nil {
			contract.LogFatal("Cannot run development loop", err)
		}
	},
}
