package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/v0xg/ytmark/internal/toolserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the summarizer and marker as MCP tools over stdio",
	Long: `serve speaks the Model Context Protocol on stdin/stdout so agent
frontends can call summarize_video and mark_watched as tools. Browser
and provider flags apply to every tool call.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "ytmark", Version: version}, nil)
	toolserver.Register(server, toolserver.Options{
		Config:   cfg,
		Browser:  browserOptions(),
		Provider: selectedProvider(),
		Model:    model,
		Log:      stepLogger{},
	})

	return server.Run(cmd.Context(), &mcp.StdioTransport{})
}
