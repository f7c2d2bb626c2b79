package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/internal/config"
	"github.com/hupe1980/agentgraph/logging"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "agentgraph",
		Short: "Multi-agent orchestration with tools, threads and transcript analysis",
		Long: `agentgraph runs tool-using agents over a decide/act state graph.

Without ANTHROPIC_API_KEY or OPENAI_API_KEY every call runs on a
deterministic offline model.

Usage:
  agentgraph serve
  agentgraph chat "What is 15 * 7?"
  agentgraph analyze interview.txt`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config file (YAML)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newServeCmd(flags),
		newChatCmd(flags),
		newAnalyzeCmd(flags),
		newAgentsCmd(flags),
		newConfigCmd(flags),
	)

	return cmd
}

// load reads configuration and builds the logger. quiet raises the level to
// warn for interactive commands unless --verbose is set.
func (f *rootFlags) load(quiet bool) (*config.Config, *logging.ZapAdapter, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Logging()

	switch {
	case f.verbose:
		logCfg.Level = "debug"
	case quiet:
		logCfg.Level = "warn"
		logCfg.Format = "console"
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}

func (f *rootFlags) build(quiet bool) (*agentgraph.AgentGraph, *logging.ZapAdapter, error) {
	cfg, logger, err := f.load(quiet)
	if err != nil {
		return nil, nil, err
	}

	ag, err := agentgraph.New(func(o *agentgraph.Options) {
		o.Config = cfg
		o.Logger = logger
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	return ag, logger, nil
}
