package main

import (
	"context"

	"github.com/habiliai/agentrouter"
	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	agents []string
	dbPath string
}

func newCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "agentrouter",
		Short:         "Routes tasks from a host conversation to remote A2A agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	cmd.PersistentFlags().StringSliceVarP(&flags.agents, "agent", "a", nil, "remote agent address; repeat or comma-separate to override AGENT_ADDRESSES")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "sqlite file for session state; overrides DATABASE_PATH")

	cmd.AddCommand(
		newServeCmd(flags),
		newMCPCmd(flags),
		newAgentsCmd(flags),
	)

	return cmd
}

func newRouter(ctx context.Context, flags *rootFlags) (*agentrouter.Router, *config.RouterConfig, *mylog.Logger, error) {
	conf, err := config.ResolveRouterConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(flags.agents) > 0 {
		conf.AgentAddresses = flags.agents
	}
	if flags.dbPath != "" {
		conf.DatabasePath = flags.dbPath
	}

	logger := mylog.NewLogger(conf.LogLevel, conf.LogHandler)
	logger.Debug("start agentrouter", "addresses", conf.Addresses(), "database", conf.DatabasePath)

	router, err := agentrouter.NewRouter(ctx,
		agentrouter.WithConfig(conf),
		agentrouter.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	return router, conf, logger, nil
}
