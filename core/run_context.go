package core

import (
	"context"

	"github.com/hupe1980/agentgraph/logging"
)

// RunContext carries execution scope for one graph run. It aggregates:
//   - The ambient cancellation Context (carrying the caller's deadline)
//   - Identifiers (ThreadID, RunID, AgentID)
//   - A logger for components participating in the run
type RunContext struct {
	Context  context.Context
	ThreadID string
	RunID    string
	AgentID  string

	*loggerAdapter
}

// NewRunContext constructs a RunContext. An empty runID is replaced with a
// fresh identifier.
func NewRunContext(ctx context.Context, threadID, runID, agentID string, logger logging.Logger) *RunContext {
	if runID == "" {
		runID = NewID()
	}
	return &RunContext{
		Context:       ctx,
		ThreadID:      threadID,
		RunID:         runID,
		AgentID:       agentID,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (rc *RunContext) Done() <-chan struct{} { return rc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (rc *RunContext) Err() error { return rc.Context.Err() }
