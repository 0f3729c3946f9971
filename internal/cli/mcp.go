package cli

import (
	"os"

	"github.com/spf13/cobra"

	"jsonload/internal/logging"
	mcpserver "jsonload/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the loader as MCP tools on stdin/stdout",
	Long: `Runs an MCP server over stdio exposing load_json, preview_json and
describe_table and list_tables. Logs go to stderr; stdout carries the protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewWriterLogger(os.Stderr, getVerboseFlag(cmd))
		srv := mcpserver.New(mcpserver.Deps{
			Logger:  logger,
			Version: resolvedVersion(),
		})
		return srv.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
