package agent

import (
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/tool"
)

// Built-in agent ids.
const (
	ResearchAssistantID = "research-assistant"
	ChatbotID           = "chatbot"
	DefaultAgentID      = ResearchAssistantID
)

const researchInstruction = `You are a helpful research assistant with the ability to search the web and use other tools.
Today's date is {{.current_date}}.

NOTE: THE USER CAN'T SEE THE TOOL RESPONSE.

A few things to remember:
- Please include markdown-formatted links to any citations used in your response. Only include one
  or two citations per response unless more are needed. ONLY USE LINKS RETURNED BY THE TOOLS.
- Use the calculator tool to answer math questions. It accepts numbers, the operators + - * / ^ (or **),
  parentheses, the constants pi and e, and the functions sqrt, abs, exp, log, ln, log10, log2, sin, cos,
  tan, asin, acos, atan, floor, ceil, round, min and max.
- If the request is ambiguous and you cannot proceed without more information, use the ask_human tool.`

const chatbotInstruction = `You are a friendly and concise assistant. Today's date is {{.current_date}}.`

// DefaultDefinitions builds the built-in agents. search backs the
// research assistant's web_search tool.
func DefaultDefinitions(search tool.SearchProvider, graphOpts ...func(o *graph.Options)) ([]*Definition, error) {
	research, err := NewDefinition(
		ResearchAssistantID,
		"A research assistant with web search and calculator.",
		[]tool.Tool{tool.NewCalculator(), tool.NewWebSearch(search), tool.NewAskHuman()},
		func(o *Options) {
			o.Instruction = NewInstructionFromText(researchInstruction)
			o.Graph = graphOpts
		},
	)
	if err != nil {
		return nil, err
	}

	chatbot, err := NewDefinition(
		ChatbotID,
		"A simple conversational assistant without tools.",
		nil,
		func(o *Options) {
			o.Instruction = NewInstructionFromText(chatbotInstruction)
			o.Graph = graphOpts
		},
	)
	if err != nil {
		return nil, err
	}

	return []*Definition{research, chatbot}, nil
}

// NewDefaultRegistry returns a registry of the built-in agents with the
// research assistant as default.
func NewDefaultRegistry(search tool.SearchProvider, graphOpts ...func(o *graph.Options)) (*Registry, error) {
	defs, err := DefaultDefinitions(search, graphOpts...)
	if err != nil {
		return nil, err
	}

	return NewRegistry(DefaultAgentID, defs...)
}
