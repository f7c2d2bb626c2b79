package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/internal/testutil"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/session"
	"github.com/hupe1980/agentgraph/tool"
)

type noSearch struct{}

func (noSearch) Name() string { return "none" }

func (noSearch) Search(context.Context, string, int) ([]tool.SearchResult, error) {
	return nil, tool.ErrSearchUnavailable
}

func newRegistry(t *testing.T) *agent.Registry {
	t.Helper()

	reg, err := agent.NewDefaultRegistry(noSearch{})
	require.NoError(t, err)

	return reg
}

// scriptedSelector routes every Claude model to m.
func scriptedSelector(m model.Model) *model.Selector {
	return model.NewSelector(model.Credentials{AnthropicAPIKey: "test"}, func(o *model.SelectorOptions) {
		o.Anthropic = func(string, string) model.Model { return m }
	})
}

// blockingStep signals started on its first call and blocks until release
// is closed.
func blockingStep(started chan<- struct{}, release <-chan struct{}) testutil.Step {
	return func(model.Request) (core.Message, error) {
		started <- struct{}{}
		<-release
		return core.NewAssistantMessage("done"), nil
	}
}

func TestInvokeAgent_ThreadHistoryAccumulates(t *testing.T) {
	store := session.NewInMemoryStore()
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), store)

	first, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "What is 2+2?", ThreadID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, agent.ResearchAssistantID, first.AgentID)
	assert.Equal(t, model.DefaultMockModel, first.Model)
	assert.True(t, first.Mock)
	assert.Contains(t, first.Response, "4")
	require.Len(t, first.ToolTrace, 1)
	assert.NotEmpty(t, first.RunID)

	snapshot, ok := e.Thread("t-1")
	require.True(t, ok)
	firstHistory := snapshot.Messages

	second, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "thanks", ThreadID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: thanks", second.Response)
	assert.NotEqual(t, first.RunID, second.RunID)

	snapshot, ok = e.Thread("t-1")
	require.True(t, ok)
	require.Len(t, snapshot.Messages, len(firstHistory)+2)
	assert.Equal(t, firstHistory, snapshot.Messages[:len(firstHistory)])
	assert.Equal(t, "thanks", snapshot.Messages[len(firstHistory)].Text())
	require.NoError(t, snapshot.CheckToolResults())
}

func TestInvokeAgent_Stateless(t *testing.T) {
	store := session.NewInMemoryStore()
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), store)

	res, err := e.InvokeAgent(context.Background(), InvokeRequest{AgentID: agent.ChatbotID, Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", res.Response)
	assert.Empty(t, res.ThreadID)
	assert.Empty(t, store.ThreadIDs())
}

func TestInvokeAgent_Validation(t *testing.T) {
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), nil)
	ctx := context.Background()

	_, err := e.InvokeAgent(ctx, InvokeRequest{Message: "  "})
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = e.InvokeAgent(ctx, InvokeRequest{AgentID: "ghost", Message: "hi"})
	require.ErrorIs(t, err, core.ErrAgentNotFound)

	_, err = e.InvokeAgent(ctx, InvokeRequest{Model: "llama-70b", Message: "hi"})
	require.ErrorIs(t, err, core.ErrUnknownModel)
}

func TestInvokeAgent_ThreadBusy(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	m := testutil.NewScriptedModel(blockingStep(started, release), testutil.Reply("second"))
	e := New(newRegistry(t), scriptedSelector(m), nil)

	done := make(chan error, 1)
	go func() {
		_, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "first", ThreadID: "busy"})
		done <- err
	}()

	<-started

	_, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "second", ThreadID: "busy"})
	require.ErrorIs(t, err, core.ErrThreadBusy)
	assert.True(t, core.IsRetryable(err))

	require.ErrorIs(t, e.ClearThread("busy"), core.ErrThreadBusy)

	// Other threads are unaffected.
	other, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "elsewhere", ThreadID: "other"})
	require.NoError(t, err)
	assert.Equal(t, "second", other.Response)

	close(release)
	require.NoError(t, <-done)

	res, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "again", ThreadID: "busy"})
	require.NoError(t, err)
	assert.Equal(t, "second", res.Response)
}

func TestInvokeAgent_FailedRunLeavesThreadUnchanged(t *testing.T) {
	pe := core.NewProviderError(model.ProviderAnthropic, "claude-3-haiku-20240307", core.ProviderErrorAuth, errors.New("401"))

	m := testutil.NewScriptedModel(testutil.Reply("hi there"), testutil.Fail(pe))
	e := New(newRegistry(t), scriptedSelector(m), nil)

	_, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "hello", ThreadID: "t-err"})
	require.NoError(t, err)

	before, ok := e.Thread("t-err")
	require.True(t, ok)

	_, err = e.InvokeAgent(context.Background(), InvokeRequest{Message: "again", ThreadID: "t-err"})

	var got *core.ProviderError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, core.ProviderErrorAuth, got.Kind)

	after, ok := e.Thread("t-err")
	require.True(t, ok)
	assert.Equal(t, before.Messages, after.Messages)
}

func TestInvokeAgent_InterruptResumesOnNextMessage(t *testing.T) {
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), nil)
	ctx := context.Background()

	res, err := e.InvokeAgent(ctx, InvokeRequest{Message: "Please ask me which city I mean", ThreadID: "t-int"})
	require.NoError(t, err)
	require.True(t, res.Interrupted)
	require.NotNil(t, res.Interrupt)
	assert.Equal(t, graph.StopInterrupted, res.StopReason)

	state, ok := e.Thread("t-int")
	require.True(t, ok)
	assert.True(t, state.Interrupted())

	res, err = e.InvokeAgent(ctx, InvokeRequest{Message: "Berlin", ThreadID: "t-int"})
	require.NoError(t, err)
	assert.False(t, res.Interrupted)
	assert.Equal(t, "Mock response to: Berlin", res.Response)

	state, ok = e.Thread("t-int")
	require.True(t, ok)
	assert.False(t, state.Interrupted())
	require.NoError(t, state.CheckToolResults())
}

func TestInvokeAgent_StatelessInterruptHasNoToken(t *testing.T) {
	store := session.NewInMemoryStore()
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), store)

	res, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "Please ask me which city I mean"})
	require.NoError(t, err)

	require.True(t, res.Interrupted)
	require.NotNil(t, res.Interrupt)
	assert.NotEmpty(t, res.Interrupt.Question)
	assert.Empty(t, res.Interrupt.Token)
	assert.Empty(t, res.ThreadID)
	assert.Empty(t, store.ThreadIDs())
}

func TestInvokeAgent_Deadline(t *testing.T) {
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), nil)

	_, err := e.InvokeAgent(context.Background(), InvokeRequest{
		Message:  "hello",
		ThreadID: "t-late",
		Deadline: time.Now().Add(-time.Second),
	})
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))

	_, ok := e.Thread("t-late")
	assert.False(t, ok)
}

func TestInvokeAgent_ConcurrencyBound(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	m := testutil.NewScriptedModel(blockingStep(started, release), testutil.Reply("ok"))
	e := New(newRegistry(t), scriptedSelector(m), nil, func(o *Options) {
		o.Config.MaxConcurrentInvocations = 1
	})

	done := make(chan error, 1)
	go func() {
		_, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "first"})
		done <- err
	}()

	<-started
	assert.Equal(t, int64(1), e.Active())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.InvokeAgent(ctx, InvokeRequest{Message: "second"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, core.ErrDeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(0), e.Active())
}

func TestCancelRun(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)

	m := testutil.NewScriptedModel(blockingStep(started, release))
	e := New(newRegistry(t), scriptedSelector(m), nil)

	require.ErrorIs(t, e.CancelRun("unknown"), ErrRunNotFound)

	done := make(chan error, 1)
	go func() {
		_, err := e.InvokeAgent(context.Background(), InvokeRequest{Message: "long", ThreadID: "t-cancel"})
		done <- err
	}()

	<-started

	e.runsMu.Lock()
	var runID string
	for id := range e.runs {
		runID = id
	}
	e.runsMu.Unlock()

	require.NoError(t, e.CancelRun(runID))
	require.ErrorIs(t, <-done, context.Canceled)

	_, ok := e.Thread("t-cancel")
	assert.False(t, ok)
}

func TestAnalyzeTranscript(t *testing.T) {
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), nil)

	summary, err := e.AnalyzeTranscript(context.Background(), TranscriptRequest{
		Text: "[00:00:00] Interviewer: Welcome.\n[00:00:05] John: Thanks.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMockModel, summary.Metadata["model_used"])
	assert.Equal(t, true, summary.Metadata["mock"])
	assert.NotEmpty(t, summary.Timeline)

	_, err = e.AnalyzeTranscript(context.Background(), TranscriptRequest{Text: ""})

	var malformed *core.MalformedAnalysisError
	require.ErrorAs(t, err, &malformed)
}

func TestListAgents(t *testing.T) {
	e := New(newRegistry(t), model.NewSelector(model.Credentials{}), nil)

	infos := e.ListAgents()
	require.Len(t, infos, 2)
	assert.Equal(t, agent.ResearchAssistantID, infos[0].ID)
	assert.Equal(t, agent.ChatbotID, infos[1].ID)
	assert.Equal(t, agent.ResearchAssistantID, e.DefaultAgentID())
	assert.True(t, e.Mock())
	assert.Equal(t, []string{"fake", "mock"}, e.Models())
}
