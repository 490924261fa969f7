package main

import (
	"fmt"

	"github.com/inkwellhq/inkwell"
	inkmcp "github.com/inkwellhq/inkwell/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server",
	Long: `Run an MCP (Model Context Protocol) server over stdio, exposing note
tools to agent frameworks. The server uses the same offline-first client
as the CLI; notes created through it sync like any other.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	client, err := inkwell.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	return inkmcp.NewServer(client).Run()
}
