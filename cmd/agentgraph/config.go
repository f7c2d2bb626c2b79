package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			out := cmd.OutOrStdout()

			fmt.Fprintln(out, labelStyle.Render("Current configuration:"))
			fmt.Fprint(out, string(data))

			fmt.Fprintln(out, mutedStyle.Render("\nCredentials:"))
			fmt.Fprintf(out, "  anthropic: %t\n  openai:    %t\n  brave:     %t\n", cfg.HasAnthropic(), cfg.HasOpenAI(), cfg.HasBrave())
			fmt.Fprintf(out, "  search:    %s\n", cfg.SearchProvider())

			return nil
		},
	}
}
