package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/session"
	"github.com/hupe1980/agentgraph/transcript"
)

// ErrEmptyMessage is returned by InvokeAgent for a blank message.
var ErrEmptyMessage = errors.New("message is empty")

// ErrRunNotFound is returned by CancelRun for unknown or finished runs.
var ErrRunNotFound = errors.New("run not found")

// Config holds operational limits.
type Config struct {
	// MaxConcurrentInvocations bounds agent invocations and transcript
	// analyses running at the same time. Callers beyond the bound wait for
	// a slot (or their context). 0 means unlimited.
	MaxConcurrentInvocations int
}

// DefaultConfig is used when no Config is supplied.
var DefaultConfig = Config{
	MaxConcurrentInvocations: 10,
}

// Options configures an Engine.
type Options struct {
	Config Config

	// Pipeline analyzes transcripts. Defaults to transcript.NewPipeline().
	Pipeline *transcript.Pipeline

	Logger logging.Logger
}

// InvokeRequest is the input of InvokeAgent.
type InvokeRequest struct {
	// AgentID selects the agent; empty selects the registry default.
	AgentID string `json:"agent_id,omitempty"`

	Message string `json:"message"`

	// Model requests a catalogue model; empty uses the selector's choice.
	Model string `json:"model,omitempty"`

	// ThreadID binds the call to a stored conversation. Empty runs the
	// call statelessly.
	ThreadID string `json:"thread_id,omitempty"`

	// Deadline optionally bounds the whole invocation. The run stops at the
	// next state-machine boundary once it passes.
	Deadline time.Time `json:"-"`
}

// InvokeResult is the outcome of InvokeAgent.
type InvokeResult struct {
	RunID       string            `json:"run_id"`
	ThreadID    string            `json:"thread_id,omitempty"`
	AgentID     string            `json:"agent_id"`
	Model       string            `json:"model"`
	Response    string            `json:"response"`
	ToolTrace   []graph.ToolTrace `json:"tool_trace,omitempty"`
	Truncated   bool              `json:"truncated"`
	Interrupted bool              `json:"interrupted"`

	// Interrupt carries the question asked via ask_human. Stateless calls
	// store nothing to resume, so their interrupt has no token.
	Interrupt  *core.Interrupt  `json:"interrupt,omitempty"`
	StopReason graph.StopReason `json:"stop_reason"`
	Steps      int              `json:"steps"`
	Mock       bool             `json:"mock"`
	DurationMS int64            `json:"duration_ms"`
}

// TranscriptRequest is the input of AnalyzeTranscript.
type TranscriptRequest struct {
	Text             string   `json:"text"`
	Model            string   `json:"model,omitempty"`
	CustomCategories []string `json:"custom_categories,omitempty"`
}

// Engine coordinates agents, models, threads and the transcript pipeline.
// It is safe for concurrent use; the registry and selector are read-only and
// the thread store serializes access per thread.
type Engine struct {
	registry *agent.Registry
	selector *model.Selector
	store    session.Store
	pipeline *transcript.Pipeline
	logger   logging.Logger
	config   Config

	slots  *semaphore.Weighted
	active atomic.Int64

	runs   map[string]context.CancelFunc
	runsMu sync.Mutex
}

// New creates an Engine.
func New(registry *agent.Registry, selector *model.Selector, store session.Store, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config: DefaultConfig,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	if opts.Pipeline == nil {
		opts.Pipeline = transcript.NewPipeline(func(o *transcript.Options) { o.Logger = logger })
	}

	if store == nil {
		store = session.NewInMemoryStore(func(o *session.Options) { o.Logger = logger })
	}

	e := &Engine{
		registry: registry,
		selector: selector,
		store:    store,
		pipeline: opts.Pipeline,
		logger:   logger,
		config:   opts.Config,
		runs:     make(map[string]context.CancelFunc),
	}

	if n := opts.Config.MaxConcurrentInvocations; n > 0 {
		e.slots = semaphore.NewWeighted(int64(n))
	}

	return e
}

// ListAgents returns the registered agents in registration order.
func (e *Engine) ListAgents() []agent.Info { return e.registry.List() }

// DefaultAgentID returns the id used when a request names no agent.
func (e *Engine) DefaultAgentID() string { return e.registry.DefaultID() }

// Models returns the model identifiers usable with the configured
// credentials.
func (e *Engine) Models() []string { return e.selector.Available() }

// Mock reports whether requests without a model run on the offline model.
func (e *Engine) Mock() bool { return e.selector.Mock() }

// Active returns the number of invocations currently holding a slot.
func (e *Engine) Active() int64 { return e.active.Load() }

// InvokeAgent runs one agent turn.
//
// Errors: core.ErrAgentNotFound, core.ErrUnknownModel, ErrEmptyMessage,
// core.ErrThreadBusy, *core.ProviderError, core.ErrDeadlineExceeded or the
// context error. Recursion-limit and step-budget stops are not errors; they
// come back with Truncated set.
func (e *Engine) InvokeAgent(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	def, err := e.registry.Get(req.AgentID)
	if err != nil {
		return nil, err
	}

	sel, err := e.selector.Select(req.Model)
	if err != nil {
		return nil, err
	}

	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	release, err := e.acquireSlot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rc := core.NewRunContext(runCtx, req.ThreadID, "", def.ID, e.logger)

	e.trackRun(rc.RunID, cancel)
	defer e.untrackRun(rc.RunID)

	start := time.Now()

	e.logger.Info("engine.invoke.start",
		"run_id", rc.RunID,
		"agent", def.ID,
		"thread_id", req.ThreadID,
		"model", sel.ID,
	)

	res, err := e.run(rc, def, sel.Model, req)
	if err != nil {
		e.logger.Error("engine.invoke.error",
			"run_id", rc.RunID,
			"agent", def.ID,
			"thread_id", req.ThreadID,
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)

		return nil, err
	}

	interrupt := res.Interrupt
	if interrupt != nil && req.ThreadID == "" {
		unresumable := *interrupt
		unresumable.Token = ""
		interrupt = &unresumable
	}

	out := &InvokeResult{
		RunID:       rc.RunID,
		ThreadID:    req.ThreadID,
		AgentID:     def.ID,
		Model:       sel.ID,
		Response:    res.Response,
		ToolTrace:   res.ToolTrace,
		Truncated:   res.Truncated,
		Interrupted: res.Interrupted(),
		Interrupt:   interrupt,
		StopReason:  res.StopReason,
		Steps:       res.Steps,
		Mock:        sel.Model.Info().IsMock(),
		DurationMS:  time.Since(start).Milliseconds(),
	}

	e.logger.Info("engine.invoke.complete",
		"run_id", out.RunID,
		"agent", out.AgentID,
		"thread_id", out.ThreadID,
		"steps", out.Steps,
		"tool_calls", len(out.ToolTrace),
		"truncated", out.Truncated,
		"interrupted", out.Interrupted,
		"duration_ms", out.DurationMS,
	)

	return out, nil
}

func (e *Engine) run(rc *core.RunContext, def *agent.Definition, m model.Model, req InvokeRequest) (*graph.Result, error) {
	if req.ThreadID == "" {
		state := core.NewConversationState("")
		state.Append(core.NewUserMessage(req.Message))

		return def.Graph.Run(rc, m, state)
	}

	lease, err := e.store.Acquire(rc.Context, req.ThreadID)
	if err != nil {
		return nil, contextError(err)
	}
	defer lease.Release()

	state := lease.GetOrCreate()

	var res *graph.Result

	if state.Interrupted() {
		res, err = def.Graph.ResumeRun(rc, m, state, req.Message)
	} else {
		state.Append(core.NewUserMessage(req.Message))
		res, err = def.Graph.Run(rc, m, state)
	}

	if err != nil {
		return nil, err
	}

	if err := lease.Save(res.State); err != nil {
		return nil, fmt.Errorf("save thread %s: %w", req.ThreadID, err)
	}

	return res, nil
}

// AnalyzeTranscript produces a structured summary of text.
//
// Errors: core.ErrUnknownModel, *core.MalformedAnalysisError,
// *core.ProviderError, core.ErrDeadlineExceeded or the context error.
func (e *Engine) AnalyzeTranscript(ctx context.Context, req TranscriptRequest) (*core.TranscriptSummary, error) {
	sel, err := e.selector.Select(req.Model)
	if err != nil {
		return nil, err
	}

	release, err := e.acquireSlot(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	summary, err := e.pipeline.Analyze(ctx, sel.Model, req.Text, req.CustomCategories)
	if err != nil {
		return nil, err
	}

	summary.Metadata["model_used"] = sel.ID

	return summary, nil
}

// Thread returns a snapshot of a stored thread.
func (e *Engine) Thread(threadID string) (*core.ConversationState, bool) {
	return e.store.Get(threadID)
}

// ClearThread forgets a thread. It fails with core.ErrThreadBusy while an
// invocation holds the thread.
func (e *Engine) ClearThread(threadID string) error {
	if err := e.store.Clear(threadID); err != nil {
		return err
	}

	e.logger.Info("engine.thread.cleared", "thread_id", threadID)

	return nil
}

// CancelRun cancels an in-flight invocation. The run stops at its next
// state-machine boundary and its thread state is left unchanged.
func (e *Engine) CancelRun(runID string) error {
	e.runsMu.Lock()
	cancel, ok := e.runs[runID]
	e.runsMu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()

	e.logger.Info("engine.run.cancelled", "run_id", runID)

	return nil
}

func (e *Engine) acquireSlot(ctx context.Context) (func(), error) {
	if e.slots != nil {
		if err := e.slots.Acquire(ctx, 1); err != nil {
			return nil, contextError(err)
		}
	}

	e.active.Add(1)

	return func() {
		e.active.Add(-1)

		if e.slots != nil {
			e.slots.Release(1)
		}
	}, nil
}

func (e *Engine) trackRun(runID string, cancel context.CancelFunc) {
	e.runsMu.Lock()
	defer e.runsMu.Unlock()
	e.runs[runID] = cancel
}

func (e *Engine) untrackRun(runID string) {
	e.runsMu.Lock()
	defer e.runsMu.Unlock()
	delete(e.runs, runID)
}

// contextError tags deadline expiry with core.ErrDeadlineExceeded while
// keeping the context error matchable.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, core.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w", core.ErrDeadlineExceeded, err)
	}
	return err
}
