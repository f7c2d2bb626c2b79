// Package agentgraph wires the agent orchestration core from configuration:
// the built-in agents, the model selector with its live providers, the
// thread store and the transcript pipeline.
//
//	ag, err := agentgraph.New()
//	if err != nil {
//	    return err
//	}
//	res, err := ag.InvokeAgent(ctx, engine.InvokeRequest{Message: "What is 2+2?"})
//
// Without provider credentials every call runs on the deterministic offline
// model.
package agentgraph

import (
	"context"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/engine"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/internal/config"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/model/anthropic"
	"github.com/hupe1980/agentgraph/model/openai"
	"github.com/hupe1980/agentgraph/session"
	"github.com/hupe1980/agentgraph/tool"
	"github.com/hupe1980/agentgraph/transcript"
)

// Options configures New.
type Options struct {
	// ConfigFile is an optional YAML file read by config.Load. Ignored when
	// Config is set.
	ConfigFile string

	// Config replaces loading from file and environment.
	Config *config.Config

	// Search overrides the web search backend chosen from configuration.
	Search tool.SearchProvider

	// Store overrides the in-memory thread store.
	Store session.Store

	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// AgentGraph is the assembled system.
type AgentGraph struct {
	cfg    *config.Config
	engine *engine.Engine
	logger logging.Logger
}

// New builds an AgentGraph.
func New(optFns ...func(o *Options)) (*AgentGraph, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.OrNoOp(opts.Logger)

	search := opts.Search
	if search == nil {
		search = NewSearchProvider(cfg)
	}

	registry, err := agent.NewDefaultRegistry(search, func(o *graph.Options) {
		o.RecursionLimit = cfg.RecursionLimit
		o.ModelTimeout = cfg.ModelTimeout
		o.ToolTimeout = cfg.ToolTimeout
		o.MaxParallel = cfg.MaxParallelTools
		o.MaxHistoryMessages = cfg.MaxHistoryMessages
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	selector := NewSelector(cfg, logger)

	store := opts.Store
	if store == nil {
		store = session.NewInMemoryStore(func(o *session.Options) {
			o.WaitForLease = cfg.WaitForThread
			o.Logger = logger
		})
	}

	pipeline := transcript.NewPipeline(func(o *transcript.Options) {
		o.ModelTimeout = cfg.ModelTimeout
		o.StrictCategories = cfg.Transcript.StrictCategories
		o.Consolidate = cfg.Transcript.Consolidate
		o.Backfill = cfg.Transcript.Backfill
		o.Logger = logger
	})

	eng := engine.New(registry, selector, store, func(o *engine.Options) {
		o.Config.MaxConcurrentInvocations = cfg.MaxConcurrentInvocations
		o.Pipeline = pipeline
		o.Logger = logger
	})

	logger.Info("agentgraph.ready",
		"agents", len(registry.List()),
		"default_agent", registry.DefaultID(),
		"models", selector.Available(),
		"mock", selector.Mock(),
		"search", search.Name(),
	)

	return &AgentGraph{cfg: cfg, engine: eng, logger: logger}, nil
}

// NewSelector builds the model selector with the live providers whose
// credentials cfg carries.
func NewSelector(cfg *config.Config, logger logging.Logger) *model.Selector {
	return model.NewSelector(cfg.Credentials(), func(o *model.SelectorOptions) {
		o.Anthropic = anthropic.Factory()
		o.OpenAI = openai.Factory()
		o.Default = cfg.DefaultModel
		o.Logger = logger
	})
}

// NewSearchProvider returns Brave Search when selected (or when a key is
// present and nothing is selected) and DuckDuckGo otherwise.
func NewSearchProvider(cfg *config.Config) tool.SearchProvider {
	if cfg.SearchProvider() == config.SearchBrave {
		return tool.NewBraveProvider(cfg.Search.BraveAPIKey)
	}
	return tool.NewDuckDuckGoProvider()
}

// Engine exposes the orchestration engine, e.g. for transports.
func (a *AgentGraph) Engine() *engine.Engine { return a.engine }

// Config returns the effective configuration.
func (a *AgentGraph) Config() *config.Config { return a.cfg }

// ListAgents returns the registered agents.
func (a *AgentGraph) ListAgents() []agent.Info { return a.engine.ListAgents() }

// InvokeAgent runs one agent turn. See engine.Engine.InvokeAgent.
func (a *AgentGraph) InvokeAgent(ctx context.Context, req engine.InvokeRequest) (*engine.InvokeResult, error) {
	return a.engine.InvokeAgent(ctx, req)
}

// AnalyzeTranscript summarizes a transcript. See engine.Engine.AnalyzeTranscript.
func (a *AgentGraph) AnalyzeTranscript(ctx context.Context, req engine.TranscriptRequest) (*core.TranscriptSummary, error) {
	return a.engine.AnalyzeTranscript(ctx, req)
}

// ClearThread forgets a stored conversation.
func (a *AgentGraph) ClearThread(threadID string) error { return a.engine.ClearThread(threadID) }
