package cmd

import (
	"github.com/huangsam/patternscan/core"
	"github.com/huangsam/patternscan/internal/contract"
	"github.com/spf13/cobra"
)

// activateCmd loads a knowledge kernel and records the activation.
var activateCmd = &cobra.Command{
	Use:   "activate <kernel> [project-path]",
	Short: "Activate a knowledge kernel and report its token savings.",
	Long: `Load <kernels-dir>/nuxt_<kernel>.spr and summarize it.

Shows:
- Concept and section counts of the kernel
- Its key patterns and first connections
- Estimated token savings against a full documentation baseline

The activation is appended to <state-dir>/activation_log.json and the kernel
name is written to <state-dir>/active_kernel.txt.

Examples:
  # Activate the composables kernel
  patternscan activate composables

  # Use kernels from another directory
  patternscan activate performance --kernels-dir docs/kernels`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return projectSetupWrapper(cmd, args[1:])
	},
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteActivate(rootCtx, cfg, args[0]); err != nil {
			contract.LogFatal("Cannot activate kernel", err)
		}
	},
}
