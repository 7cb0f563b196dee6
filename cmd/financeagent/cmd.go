package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/habiliai/agentrouter/config"
	"github.com/habiliai/agentrouter/internal/mylog"
	"github.com/habiliai/agentrouter/skill"
	"github.com/habiliai/agentrouter/worker"
	"github.com/mokiat/gog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newCmd() *cobra.Command {
	var (
		logLevel   string
		logHandler string
	)
	cmd := &cobra.Command{
		Use:          "financeagent <agent-file OR agent-files-dir>...",
		Short:        "Start financial statement agents",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.Errorf("agent-file or agent-files-dir is required")
			}

			agentFiles, err := expandAgentFiles(args)
			if err != nil {
				return err
			}

			logger := mylog.NewLogger(logLevel, logHandler)

			fmpConf, err := config.ResolveFMPConfig()
			if err != nil {
				return err
			}
			if fmpConf.APIKey == "" {
				logger.Warn("FMP_KEY is not set, upstream requests will likely be rejected")
			}
			client := skill.NewClient(fmpConf, nil)

			agentConfigs, err := config.LoadAgentsFromFiles(agentFiles)
			if err != nil {
				return errors.Wrapf(err, "failed to load agent config")
			}

			workers := make([]*worker.Worker, 0, len(agentConfigs))
			for _, ac := range agentConfigs {
				s, err := skill.New(skill.Statement(ac.Skill), client, logger)
				if err != nil {
					return errors.Wrapf(err, "agent %s", ac.Name)
				}
				workers = append(workers, worker.New(&ac, s, logger))
				logger.Info("Agent loaded", "name", ac.Name, "skill", ac.Skill)
			}

			logger.Debug("start financeagent", "agents", gog.Map(agentConfigs, func(ac config.AgentConfig) string {
				return ac.Name
			}))

			eg, ctx := errgroup.WithContext(cmd.Context())
			for i := range agentConfigs {
				conf, w := &agentConfigs[i], workers[i]
				eg.Go(func() error {
					return worker.Serve(ctx, conf, w, logger.With("agent", conf.Name))
				})
			}
			return eg.Wait()
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "debug", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logHandler, "log-handler", "default", "log handler (default, json)")

	return cmd
}

func expandAgentFiles(args []string) ([]string, error) {
	var agentFiles []string
	for _, filename := range args {
		stat, err := os.Stat(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "agent-file or agent-files-dir does not exist")
		}
		if !stat.IsDir() {
			agentFiles = append(agentFiles, filename)
			continue
		}

		files, err := os.ReadDir(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read agent-files-dir")
		}
		for _, file := range files {
			if file.IsDir() ||
				(!strings.HasSuffix(file.Name(), ".yaml") && !strings.HasSuffix(file.Name(), ".yml")) {
				continue
			}
			agentFiles = append(agentFiles, filepath.Join(filename, file.Name()))
		}
	}
	if len(agentFiles) == 0 {
		return nil, errors.Errorf("no agent files found in %v", args)
	}
	return agentFiles, nil
}
