package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/tool"
)

// ExecutorConfig configures the parallel tool executor.
type ExecutorConfig struct {
	MaxParallel int           // <1 => one goroutine per call
	ToolTimeout time.Duration // <=0 => no per-tool bound
}

// Outcome is the joined result of one tool round. Results and Trace are in
// call order; Interrupt is the first interrupt requested in that order.
type Outcome struct {
	Results   []core.ToolResult
	Trace     []ToolTrace
	Interrupt *core.Interrupt
}

// Executor runs the tool calls of one assistant turn concurrently and joins
// them. It never panics and produces exactly one result per call, whatever
// the tool does.
type Executor struct {
	cfg ExecutorConfig
}

// NewExecutor constructs an executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	return &Executor{cfg: cfg}
}

// Execute runs calls against tools. Tool contexts are detached from the run's
// cancellation; each is bounded by the tool timeout instead.
func (e *Executor) Execute(runCtx *core.RunContext, tools *tool.Registry, calls []core.ToolCall) Outcome {
	n := len(calls)
	if n == 0 {
		return Outcome{}
	}

	results := make([]core.ToolResult, n)
	trace := make([]ToolTrace, n)
	interrupts := make([]*core.Interrupt, n)

	var g errgroup.Group
	if e.cfg.MaxParallel > 0 {
		g.SetLimit(e.cfg.MaxParallel)
	}

	batchStart := time.Now()

	for i := range calls {
		g.Go(func() error {
			results[i], trace[i], interrupts[i] = e.executeOne(runCtx, tools, calls[i])
			return nil
		})
	}

	_ = g.Wait()

	out := Outcome{Results: results, Trace: trace}

	for _, in := range interrupts {
		if in != nil {
			out.Interrupt = in
			break
		}
	}

	runCtx.LogInfo(
		"graph.tools.batch.complete",
		"agent", runCtx.AgentID,
		"count", n,
		"duration_ms", time.Since(batchStart).Milliseconds(),
		"interrupted", out.Interrupt != nil,
	)

	return out
}

type callReturn struct {
	value any
	err   error
}

func (e *Executor) executeOne(runCtx *core.RunContext, tools *tool.Registry, call core.ToolCall) (core.ToolResult, ToolTrace, *core.Interrupt) {
	start := time.Now()

	ctx := context.WithoutCancel(runCtx.Context)
	cancel := context.CancelFunc(func() {})
	if e.cfg.ToolTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ToolTimeout)
	}
	defer cancel()

	toolCtx := core.NewToolContext(ctx, runCtx, call.ID, call.Name)

	runCtx.LogDebug("graph.tool.start", "agent", runCtx.AgentID, "tool", call.Name, "call_id", call.ID)

	var (
		value any
		err   error
	)

	if t, ok := tools.Get(call.Name); !ok {
		err = tool.NewToolError(call.Name, fmt.Sprintf("tool %s not found", call.Name), tool.CodeNotFound)
	} else if args, argErr := parseArguments(call.Arguments); argErr != nil {
		err = tool.NewToolError(call.Name, argErr.Error(), tool.CodeValidation)
	} else {
		done := make(chan callReturn, 1)

		go func() {
			var ret callReturn
			defer func() {
				if r := recover(); r != nil {
					runCtx.LogError("graph.tool.panic", "agent", runCtx.AgentID, "tool", call.Name, "recover", r)
					ret = callReturn{err: tool.NewToolError(call.Name, panicError(r).Error(), tool.CodePanic)}
				}
				done <- ret
			}()
			ret.value, ret.err = t.Call(toolCtx, args)
		}()

		select {
		case ret := <-done:
			value, err = ret.value, ret.err
		case <-ctx.Done():
			// The tool ignored its context; its late result is dropped.
			runCtx.LogWarn("graph.tool.abandoned", "agent", runCtx.AgentID, "tool", call.Name, "call_id", call.ID)
			err = ctx.Err()
		}
	}

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		var te *tool.ToolError
		if !errors.As(err, &te) || te.Code == tool.CodeExecution {
			err = tool.NewToolError(call.Name, fmt.Sprintf("tool %s timed out after %s", call.Name, e.cfg.ToolTimeout), tool.CodeTimeout)
		}
	}

	dur := time.Since(start)

	result := core.ToolResult{CallID: call.ID, Name: call.Name}
	entry := ToolTrace{CallID: call.ID, Name: call.Name, Arguments: call.Arguments, DurationMS: dur.Milliseconds()}

	if err != nil {
		var te *tool.ToolError
		if !errors.As(err, &te) {
			te = tool.NewToolError(call.Name, err.Error(), tool.CodeExecution)
		}

		result.Error = te.Message
		result.Code = te.Code
		entry.Error = te.Message
		entry.Code = te.Code
	} else {
		result.Content = value
		entry.Result = value
	}

	runCtx.LogInfo(
		"graph.tool.executed",
		"agent", runCtx.AgentID,
		"tool", call.Name,
		"call_id", call.ID,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)

	return result, entry, toolCtx.InterruptRequest()
}

// parseArguments decodes the JSON argument object of a tool call. An empty
// string means no arguments.
func parseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}

	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}

	if args == nil {
		args = map[string]any{}
	}

	return args, nil
}

func panicError(r any) error {
	return fmt.Errorf("panic: %v\n%s", r, firstStackLines(debug.Stack(), 8))
}

func firstStackLines(stack []byte, n int) string {
	lines := strings.SplitN(string(stack), "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
