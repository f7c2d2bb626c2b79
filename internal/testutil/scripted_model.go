package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// Step produces one model turn from the request. Returning an error makes
// Generate fail with it.
type Step func(req model.Request) (core.Message, error)

// ScriptedModel replays a fixed sequence of steps and records every request
// it receives. Once the script is exhausted the last step repeats.
//
//	m := NewScriptedModel(CallTool("calculator", `{"expression":"2+2"}`), Reply("4"))
type ScriptedModel struct {
	info  model.Info
	steps []Step

	mu       sync.Mutex
	requests []model.Request
}

// NewScriptedModel creates a model named "scripted" with provider "mock".
func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{
		info:  model.Info{Name: "scripted", Provider: model.ProviderMock, SupportsTools: true},
		steps: steps,
	}
}

// WithInfo overrides the reported model info (chainable).
func (m *ScriptedModel) WithInfo(info model.Info) *ScriptedModel {
	m.info = info
	return m
}

// Info implements model.Model.
func (m *ScriptedModel) Info() model.Info { return m.info }

// Generate implements model.Model.
func (m *ScriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	idx := len(m.requests)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}

		if len(m.steps) == 0 {
			errCh <- fmt.Errorf("scripted model has no steps")
			return
		}

		if idx >= len(m.steps) {
			idx = len(m.steps) - 1
		}

		msg, err := m.steps[idx](req)
		if err != nil {
			errCh <- err
			return
		}

		out <- model.Response{ID: fmt.Sprintf("scripted_%d", idx), Message: msg, FinishReason: "stop"}
	}()

	return out, errCh
}

// Requests returns a copy of the requests received so far.
func (m *ScriptedModel) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Request, len(m.requests))
	copy(out, m.requests)

	return out
}

// Calls returns how many times Generate was invoked.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Reply returns a step answering with text.
func Reply(text string) Step {
	return func(model.Request) (core.Message, error) {
		return core.NewAssistantMessage(text), nil
	}
}

// CallTool returns a step requesting a single tool call. The call id is
// derived from the history length so replays stay deterministic.
func CallTool(name, args string) Step {
	return CallTools(core.ToolCall{Name: name, Arguments: args})
}

// CallTools returns a step requesting several tool calls in one turn.
// Empty ids are filled in as call_<history>_<index>.
func CallTools(calls ...core.ToolCall) Step {
	return func(req model.Request) (core.Message, error) {
		out := make([]core.ToolCall, len(calls))
		for i, c := range calls {
			if c.ID == "" {
				c.ID = fmt.Sprintf("call_%d_%d", len(req.Messages), i)
			}
			out[i] = c
		}
		return core.NewAssistantMessage("", out...), nil
	}
}

// Fail returns a step failing with err.
func Fail(err error) Step {
	return func(model.Request) (core.Message, error) { return core.Message{}, err }
}
