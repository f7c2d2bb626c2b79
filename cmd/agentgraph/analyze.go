package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph/engine"
)

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	var (
		modelID    string
		categories []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze an interview transcript (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)

			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			ag, logger, err := flags.build(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			summary, err := ag.AnalyzeTranscript(cmd.Context(), engine.TranscriptRequest{
				Text:             string(data),
				Model:            modelID,
				CustomCategories: categories,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			renderSummary(out, summary)

			if model, ok := summary.Metadata["model_used"].(string); ok {
				fmt.Fprintln(out, mutedStyle.Render(strings.TrimSpace("model: "+model)))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "Model id")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Additional timeline category (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")

	return cmd
}
