package cmd

import (
	"github.com/huangsam/patternscan/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [project-path]",
	Short: "Start the patternscan MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents extract patterns,
predict development needs and validate coverage via standard tools.

Logs go to stderr; stdout carries the protocol.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
