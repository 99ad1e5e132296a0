package cli

import (
	"github.com/spf13/cobra"

	"asknehru/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools:
  ask_nehru    {question}       - answer a question from the book
  search_book  {query, limit}   - ranked passages

Resources:
  asknehru://corpus             - corpus statistics and overview

Example client configuration:
  {
    "mcpServers": {
      "asknehru": {
        "command": "/path/to/asknehru",
        "args": ["mcp", "--corpus", "/path/to/discovery_of_india.txt"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcpserver.NewServer(app.Service)
	if err != nil {
		return err
	}
	return server.Run(cmd.Context())
}
