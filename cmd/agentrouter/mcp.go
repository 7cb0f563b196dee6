package main

import (
	"github.com/habiliai/agentrouter/tool"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the router tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			router, _, logger, err := newRouter(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer router.Close()

			logger.Info("serving mcp on stdio", "agents", len(router.ListAgents()))
			return server.ServeStdio(tool.NewServer(router, logger, version))
		},
	}
}
