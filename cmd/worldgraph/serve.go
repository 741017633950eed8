package main

import (
	"context"

	"github.com/spf13/cobra"

	"worldgraph/internal/mcp"
	"worldgraph/internal/store/sqlite"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	rules, err := p.rules()
	if err != nil {
		return err
	}

	index, err := sqlite.New(ctx)
	if err != nil {
		return err
	}
	defer index.Close(ctx)

	server := mcp.NewServer(p.state, index, rules, version, p.logger)
	return server.Run(ctx, &sdk.StdioTransport{})
}
