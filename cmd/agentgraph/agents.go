package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAgentsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List agents and available models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ag, logger, err := flags.build(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			out := cmd.OutOrStdout()
			eng := ag.Engine()

			fmt.Fprintln(out, titleStyle.Render("Agents"))
			for _, info := range eng.ListAgents() {
				name := info.ID
				if name == eng.DefaultAgentID() {
					name += " (default)"
				}

				fmt.Fprintf(out, "  %s  %s\n", labelStyle.Render(name), info.Description)

				if len(info.Tools) > 0 {
					fmt.Fprintln(out, mutedStyle.Render("    tools: "+strings.Join(info.Tools, ", ")))
				}
			}

			fmt.Fprintln(out, titleStyle.Render("Models"))
			fmt.Fprintln(out, "  "+strings.Join(eng.Models(), ", "))

			if eng.Mock() {
				fmt.Fprintln(out, warnStyle.Render("No provider credentials configured: running on the offline mock model."))
			}

			return nil
		},
	}
}
