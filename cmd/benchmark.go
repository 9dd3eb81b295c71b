package cmd

import (
	"github.com/huangsam/patternscan/core"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/spf13/cobra"
)

// benchmarkCmd measures build and runtime metrics of a project.
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark [project-path]",
	Short: "Measure build time, bundle size, kernel efficiency and API routes.",
	Long: `Collect performance metrics of a Nuxt project and rate them.

Sections:
- Build time of the build command after removing .nuxt and .output
- Bundle size of .output, split into client and server
- Knowledge kernel efficiency against a 150KB documentation baseline
- API route count under server/api
- Lighthouse scores when --audit-url is given

A section that cannot be measured reports its error; the others still run.
Results are written to <state-dir>/benchmark_results.json.

Examples:
  # Benchmark the current project
  patternscan benchmark

  # Reuse an existing build
  patternscan benchmark --skip-build

  # Start the dev server and audit it
  patternscan benchmark --serve --audit-url http://localhost:3000`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: projectSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBenchmark(rootCtx, cfg, runner); err != nil {
			contract.LogFatal("Cannot run benchmark", err)
		}
	},
}
