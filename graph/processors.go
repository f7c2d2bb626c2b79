package graph

import (
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// RequestProcessor mutates the model request before each deciding step.
type RequestProcessor interface {
	Name() string
	ProcessRequest(runCtx *core.RunContext, req *model.Request, state *core.ConversationState) error
}

// InstructionProvider resolves the system instructions for a run.
type InstructionProvider interface {
	Resolve(runCtx *core.RunContext) (string, error)
}

// InstructionFunc adapts a function to InstructionProvider.
type InstructionFunc func(runCtx *core.RunContext) (string, error)

// Resolve implements InstructionProvider.
func (f InstructionFunc) Resolve(runCtx *core.RunContext) (string, error) { return f(runCtx) }

// InstructionsProcessor sets req.Instructions.
type InstructionsProcessor struct {
	provider InstructionProvider
}

// NewInstructionsProcessor creates a new instructions processor. A nil
// provider leaves the instructions empty.
func NewInstructionsProcessor(provider InstructionProvider) *InstructionsProcessor {
	return &InstructionsProcessor{provider: provider}
}

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest adds system instructions to the request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, _ *core.ConversationState) error {
	if p.provider == nil {
		return nil
	}

	instructions, err := p.provider.Resolve(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.LogDebug("graph.instruction.resolved", "agent", runCtx.AgentID, "length", len(instructions))

	req.Instructions = instructions

	return nil
}

// HistoryProcessor copies the conversation into the request, optionally
// limited to the most recent messages.
type HistoryProcessor struct {
	max int
}

// NewHistoryProcessor creates a history processor; max <= 0 keeps everything.
func NewHistoryProcessor(max int) *HistoryProcessor { return &HistoryProcessor{max: max} }

// Name returns the processor's identifier.
func (p *HistoryProcessor) Name() string { return "history" }

// ProcessRequest sets req.Messages.
func (p *HistoryProcessor) ProcessRequest(_ *core.RunContext, req *model.Request, state *core.ConversationState) error {
	req.Messages = trimHistory(state.Messages, p.max)
	return nil
}

// trimHistory keeps the last max messages. The window always starts on a
// user message: leading assistant and tool messages are dropped, and a window
// holding no user message reaches back to the latest one before it.
func trimHistory(msgs []core.Message, max int) []core.Message {
	start := 0
	if max > 0 && len(msgs) > max {
		start = len(msgs) - max

		first := -1
		for i := start; i < len(msgs); i++ {
			if msgs[i].Role == core.RoleUser {
				first = i
				break
			}
		}

		if first < 0 {
			first = start - 1
			for first > 0 && msgs[first].Role != core.RoleUser {
				first--
			}
		}

		start = first
	}

	out := make([]core.Message, len(msgs)-start)
	copy(out, msgs[start:])

	return out
}
