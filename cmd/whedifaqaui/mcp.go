package main

import (
	"github.com/spf13/cobra"

	"github.com/georgeLochner/whedifaqaui/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the backend to assistants over MCP (stdio)",
	Long: `Run an MCP server on stdin/stdout exposing transcript search, chat,
transcripts, documents and the video library as tools. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.Serve(newClient(), version)
	},
}
