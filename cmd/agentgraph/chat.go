package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph/engine"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	var (
		agentID  string
		modelID  string
		threadID string
		trace    bool
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to an agent (one-shot with an argument, interactive otherwise)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, logger, err := flags.build(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			out := cmd.OutOrStdout()

			send := func(msg string) error {
				res, err := ag.InvokeAgent(cmd.Context(), engine.InvokeRequest{
					AgentID:  agentID,
					Message:  msg,
					Model:    modelID,
					ThreadID: threadID,
				})
				if err != nil {
					return err
				}
				renderResult(out, res, trace)
				return nil
			}

			if len(args) > 0 {
				return send(strings.Join(args, " "))
			}

			if threadID == "" {
				threadID = uuid.NewString()
			}

			fmt.Fprintln(out, titleStyle.Render("agentgraph chat"))
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("thread %s · /quit to exit · /clear to reset", threadID)))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, labelStyle.Render("> "))

				if !scanner.Scan() {
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())

				switch line {
				case "":
					continue
				case "/quit", "/exit":
					return nil
				case "/clear":
					if err := ag.ClearThread(threadID); err != nil {
						fmt.Fprintln(out, errorStyle.Render(err.Error()))
					}
					continue
				}

				if err := send(line); err != nil {
					fmt.Fprintln(out, errorStyle.Render("Error: "+err.Error()))
				}
			}
		},
	}

	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Agent id (default agent if empty)")
	cmd.Flags().StringVarP(&modelID, "model", "m", "", "Model id, e.g. claude-3-haiku, gpt-4o-mini, mock")
	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "Thread id to continue")
	cmd.Flags().BoolVar(&trace, "trace", true, "Show tool calls")

	return cmd
}
