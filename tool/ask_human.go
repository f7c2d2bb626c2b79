package tool

import (
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// AskHumanName is the registered name of the human hand-off tool.
const AskHumanName = "ask_human"

type askHumanArgs struct {
	Question string `json:"question" description:"The question to put to the user"`
}

// NewAskHuman returns the tool a model calls when it needs input from the
// user. The call itself succeeds; it flags an interrupt on the ToolContext and
// the graph suspends once the current tool round has joined.
func NewAskHuman() *FunctionTool {
	return NewTypedTool(
		AskHumanName,
		"Ask the user a clarifying question when the request cannot be completed without more input.",
		func(tc *core.ToolContext, in askHumanArgs) (any, error) {
			question := strings.TrimSpace(in.Question)
			if question == "" {
				return nil, &ToolError{Tool: AskHumanName, Message: "question is required", Code: CodeValidation}
			}

			tc.RequestInterrupt(question)

			return "Question forwarded to the user. Wait for their reply before continuing.", nil
		},
	)
}
