package core

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/logging"
)

// ToolContext provides a constrained surface for tool implementations
// invoked by the graph. Its Context is bounded by the tool timeout and is
// detached from the caller's overall deadline, so a tool already running is
// never cut short by it.
type ToolContext struct {
	runCtx   *RunContext
	ctx      context.Context
	callID   string
	toolName string

	mu        sync.Mutex
	interrupt *Interrupt

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext,
// a tool-scoped context and the id of the call being served.
func NewToolContext(ctx context.Context, runCtx *RunContext, callID, toolName string) *ToolContext {
	return &ToolContext{
		runCtx:        runCtx,
		ctx:           ctx,
		callID:        callID,
		toolName:      toolName,
		loggerAdapter: newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// ThreadID returns the thread the run belongs to (empty for stateless runs).
func (tc *ToolContext) ThreadID() string { return tc.runCtx.ThreadID }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// AgentID returns the agent executing the tool.
func (tc *ToolContext) AgentID() string { return tc.runCtx.AgentID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// CallID returns the tool call ID associated with the tool invocation.
func (tc *ToolContext) CallID() string { return tc.callID }

// ToolName returns the name of the tool being invoked.
func (tc *ToolContext) ToolName() string { return tc.toolName }

// RequestInterrupt asks the graph to suspend before the next deciding step
// and hand control back to the caller with a resumable marker.
func (tc *ToolContext) RequestInterrupt(question string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.interrupt != nil {
		return
	}

	tc.interrupt = &Interrupt{
		Token:     NewID(),
		CallID:    tc.callID,
		Question:  question,
		CreatedAt: time.Now().UTC(),
	}

	tc.LogInfo("tool.interrupt.request", "agent", tc.AgentID(), "call_id", tc.callID, "thread_id", tc.ThreadID())
}

// InterruptRequest returns the interrupt requested by the tool, if any.
func (tc *ToolContext) InterruptRequest() *Interrupt {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	return tc.interrupt
}
