package cmd

import (
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Short:   "Start the perftimeline MCP server",
	Long:    `Launch an MCP server that lets AI agents query the perf timeline via standard tools.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartServer(rootCtx, cfg, contract.NewLocalLogSource())
	},
}
