package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// Node names of the state machine.
type Node string

const (
	NodeStart          Node = "start"
	NodeDeciding       Node = "deciding"
	NodeExecutingTools Node = "executing_tools"
	NodeInterrupted    Node = "interrupted"
	NodeEnd            Node = "end"
)

// StopReason explains why a run ended.
type StopReason string

const (
	StopFinalAnswer    StopReason = "final_answer"
	StopRecursionLimit StopReason = "recursion_limit"
	StopStepBudget     StopReason = "step_budget"
	StopInterrupted    StopReason = "interrupted"
)

// NeedMoreStepsReply replaces tool requests made on the last permitted step.
const NeedMoreStepsReply = "Sorry, need more steps to process this request."

// Defaults applied by New.
const (
	DefaultRecursionLimit = 25
	DefaultModelTimeout   = 60 * time.Second
	DefaultToolTimeout    = 15 * time.Second
	DefaultMaxParallel    = 4
)

// Options configures a Graph.
type Options struct {
	// Name identifies the graph (usually the agent id) in logs.
	Name string

	// Instruction provides the system instructions for deciding steps.
	Instruction InstructionProvider

	// RecursionLimit bounds deciding entries per invocation.
	RecursionLimit int

	// ModelTimeout bounds each model call.
	ModelTimeout time.Duration

	// ToolTimeout bounds each tool call.
	ToolTimeout time.Duration

	// MaxParallel bounds concurrently running tool calls of one round.
	MaxParallel int

	// MaxHistoryMessages limits the history sent to the model (0 = all).
	MaxHistoryMessages int

	// Stream requests streamed generation from the model.
	Stream bool

	// Processors replace the default request processors (instructions,
	// history) when non-nil.
	Processors []RequestProcessor

	Logger logging.Logger
}

// Graph is a compiled, immutable decide/act state machine bound to a tool
// registry. It is safe for concurrent use; all run state lives in the
// ConversationState passed to Invoke.
type Graph struct {
	tools      *tool.Registry
	opts       Options
	processors []RequestProcessor
	executor   *Executor
	logger     logging.Logger
}

// New compiles a graph over tools.
func New(tools *tool.Registry, optFns ...func(o *Options)) *Graph {
	opts := Options{
		RecursionLimit: DefaultRecursionLimit,
		ModelTimeout:   DefaultModelTimeout,
		ToolTimeout:    DefaultToolTimeout,
		MaxParallel:    DefaultMaxParallel,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.RecursionLimit <= 0 {
		opts.RecursionLimit = DefaultRecursionLimit
	}

	processors := opts.Processors
	if processors == nil {
		processors = []RequestProcessor{
			NewInstructionsProcessor(opts.Instruction),
			NewHistoryProcessor(opts.MaxHistoryMessages),
		}
	}

	return &Graph{
		tools:      tools,
		opts:       opts,
		processors: processors,
		executor: NewExecutor(ExecutorConfig{
			MaxParallel: opts.MaxParallel,
			ToolTimeout: opts.ToolTimeout,
		}),
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Tools returns the registry bound to the graph.
func (g *Graph) Tools() *tool.Registry { return g.tools }

// RecursionLimit returns the configured recursion limit.
func (g *Graph) RecursionLimit() int { return g.opts.RecursionLimit }

// ToolTrace records one executed tool call.
type ToolTrace struct {
	CallID     string `json:"call_id"`
	Name       string `json:"name"`
	Arguments  string `json:"arguments,omitempty"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Result is the outcome of a run. State is the same value passed in,
// advanced by the run.
type Result struct {
	State      *core.ConversationState
	Response   string
	ToolTrace  []ToolTrace
	Truncated  bool
	Interrupt  *core.Interrupt
	StopReason StopReason
	Model      string
	Steps      int
}

// Interrupted reports whether the run suspended for human input.
func (r *Result) Interrupted() bool { return r.Interrupt != nil }

// Invoke runs the graph on state with a fresh run context. The last message
// of state is expected to be the caller's new user message.
func (g *Graph) Invoke(ctx context.Context, m model.Model, state *core.ConversationState) (*Result, error) {
	return g.Run(core.NewRunContext(ctx, state.ThreadID, "", g.opts.Name, g.logger), m, state)
}

// Resume continues a run suspended by an interrupt. The reply is appended as
// a new user message and the graph re-enters deciding.
func (g *Graph) Resume(ctx context.Context, m model.Model, state *core.ConversationState, reply string) (*Result, error) {
	return g.ResumeRun(core.NewRunContext(ctx, state.ThreadID, "", g.opts.Name, g.logger), m, state, reply)
}

// ResumeRun is Resume with an explicit run context.
func (g *Graph) ResumeRun(runCtx *core.RunContext, m model.Model, state *core.ConversationState, reply string) (*Result, error) {
	if !state.Interrupted() {
		return nil, core.ErrNoInterrupt
	}

	runCtx.LogInfo("graph.resume", "agent", runCtx.AgentID, "thread_id", state.ThreadID, "token", state.Interrupt.Token)

	state.Append(core.NewUserMessage(reply))
	state.Interrupt = nil

	return g.Run(runCtx, m, state)
}

// Run executes the state machine from start until end, an interrupt, or an
// error. ToolErrors never abort the run. A *core.ProviderError, an expired
// deadline (core.ErrDeadlineExceeded) or cancellation do; in that case the
// partially advanced state is returned alongside the error.
func (g *Graph) Run(runCtx *core.RunContext, m model.Model, state *core.ConversationState) (*Result, error) {
	if state.Interrupted() {
		// A new message answers a pending question.
		state.Interrupt = nil
	}

	state.ResetRun()

	info := m.Info()
	state.Model = info.Name

	res := &Result{State: state, Model: info.Name}
	limiter := core.NewStepLimiter(g.opts.RecursionLimit, 0)
	start := time.Now()

	runCtx.LogInfo("graph.run.start", "agent", runCtx.AgentID, "run_id", runCtx.RunID, "thread_id", state.ThreadID, "model", info.Name)

	node := NodeStart

	for {
		switch node {
		case NodeStart:
			node = NodeDeciding

		case NodeDeciding:
			if err := boundary(runCtx); err != nil {
				return g.abort(runCtx, res, err)
			}

			if err := limiter.Enter(); err != nil {
				runCtx.LogWarn("graph.recursion_limit", "agent", runCtx.AgentID, "limit", g.opts.RecursionLimit)
				res.Truncated = true
				res.StopReason = StopRecursionLimit
				node = NodeEnd
				continue
			}

			state.Step = limiter.Count()

			msg, err := g.decide(runCtx, m, state)
			if err != nil {
				return g.abort(runCtx, res, err)
			}

			if msg.HasToolCalls() && limiter.Remaining() == 0 {
				runCtx.LogWarn("graph.step_budget.exhausted", "agent", runCtx.AgentID, "step", state.Step, "dropped_calls", len(msg.ToolCalls()))
				msg = core.NewAssistantMessage(NeedMoreStepsReply)
				res.Truncated = true
				res.StopReason = StopStepBudget
			}

			state.Append(msg)

			if msg.HasToolCalls() {
				node = NodeExecutingTools
			} else {
				if res.StopReason == "" {
					res.StopReason = StopFinalAnswer
				}
				node = NodeEnd
			}

		case NodeExecutingTools:
			if err := boundary(runCtx); err != nil {
				return g.abort(runCtx, res, err)
			}

			last, _ := state.LastMessage()
			outcome := g.executor.Execute(runCtx, g.tools, last.ToolCalls())

			for _, r := range outcome.Results {
				state.Append(core.NewToolMessage(r))
			}
			res.ToolTrace = append(res.ToolTrace, outcome.Trace...)

			if outcome.Interrupt != nil {
				state.Interrupt = outcome.Interrupt
				res.Interrupt = outcome.Interrupt
				res.StopReason = StopInterrupted
				node = NodeInterrupted
				continue
			}

			node = NodeDeciding

		case NodeInterrupted:
			res.Response = state.Interrupt.Question
			res.Steps = state.Step

			runCtx.LogInfo("graph.interrupt", "agent", runCtx.AgentID, "thread_id", state.ThreadID, "token", state.Interrupt.Token)

			return res, nil

		case NodeEnd:
			state.Done = true
			state.Truncated = res.Truncated
			res.Response = state.LastAssistantText()
			res.Steps = state.Step

			runCtx.LogInfo("graph.run.complete",
				"agent", runCtx.AgentID,
				"run_id", runCtx.RunID,
				"steps", res.Steps,
				"tool_calls", len(res.ToolTrace),
				"truncated", res.Truncated,
				"stop_reason", string(res.StopReason),
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return res, nil
		}
	}
}

// decide performs one model call with the agent's bound tools.
func (g *Graph) decide(runCtx *core.RunContext, m model.Model, state *core.ConversationState) (core.Message, error) {
	req := &model.Request{
		Tools:  g.tools.Definitions(),
		Stream: g.opts.Stream,
	}

	for _, p := range g.processors {
		if err := p.ProcessRequest(runCtx, req, state); err != nil {
			return core.Message{}, fmt.Errorf("request processor %s failed: %w", p.Name(), err)
		}
	}

	runCtx.LogDebug("graph.deciding.start", "agent", runCtx.AgentID, "step", state.Step, "messages", len(req.Messages), "tools", len(req.Tools))

	ctx := runCtx.Context
	if g.opts.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.ModelTimeout)
		defer cancel()
	}

	start := time.Now()

	msg, err := model.Collect(ctx, m, *req)
	if err != nil {
		if parentErr := runCtx.Err(); parentErr != nil {
			return core.Message{}, contextError(parentErr)
		}

		var pe *core.ProviderError
		if errors.As(err, &pe) {
			return core.Message{}, err
		}

		info := m.Info()

		return core.Message{}, core.NewProviderError(info.Provider, info.Name, "", err)
	}

	msg.Role = core.RoleAssistant
	normalizeCallIDs(&msg)

	runCtx.LogDebug("graph.deciding.complete",
		"agent", runCtx.AgentID,
		"step", state.Step,
		"tool_calls", len(msg.ToolCalls()),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return msg, nil
}

// normalizeCallIDs gives every tool call a unique id within the message so
// each one is answered by exactly one result. Repeated calls to the same tool
// are all executed; only missing or reused ids are replaced.
func normalizeCallIDs(msg *core.Message) {
	seen := make(map[string]struct{})

	for i, p := range msg.Parts {
		tc, ok := p.(core.ToolCallPart)
		if !ok {
			continue
		}

		if _, dup := seen[tc.ToolCall.ID]; tc.ToolCall.ID == "" || dup {
			tc.ToolCall.ID = "call_" + core.NewID()
			msg.Parts[i] = tc
		}

		seen[tc.ToolCall.ID] = struct{}{}
	}
}

func (g *Graph) abort(runCtx *core.RunContext, res *Result, err error) (*Result, error) {
	res.Steps = res.State.Step
	res.Response = res.State.LastAssistantText()

	runCtx.LogError("graph.run.error", "agent", runCtx.AgentID, "run_id", runCtx.RunID, "step", res.Steps, "error", err.Error())

	return res, err
}

// boundary reports whether the run may cross into the next state.
func boundary(runCtx *core.RunContext) error {
	if err := runCtx.Err(); err != nil {
		return contextError(err)
	}
	return nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", core.ErrDeadlineExceeded, err)
	}
	return err
}
