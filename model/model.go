package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ResponseSchema asks the model for a single JSON object matching Schema
// instead of free-form text. Providers that support it constrain the output
// structurally; others only see it as part of the instructions.
type ResponseSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
}

// Request captures the normalized model input produced by the graph and the
// transcript pipeline.
type Request struct {
	Instructions   string           `json:"instructions"` // System instructions for the model
	Messages       []core.Message   `json:"messages"`     // Conversation history converted to provider messages
	Tools          []ToolDefinition `json:"tools,omitempty"`
	ResponseSchema *ResponseSchema  `json:"response_schema,omitempty"`
	Stream         bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"` // Indicates if this is a partial response
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// IsMock reports whether the model is the offline deterministic backend.
func (i Info) IsMock() bool { return i.Provider == ProviderMock }

// Model is the minimal interface required by the graph and the transcript
// pipeline to drive generation.
//
// Generate emits zero or more partial responses followed by exactly one final
// response on the first channel, or a single error on the second. Both
// channels are closed when generation ends. Live providers report failures as
// *core.ProviderError.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ErrNoResponse is returned by Collect when a model closes its channels
// without a final response.
var ErrNoResponse = errors.New("model returned no final response")

// Collect drains a Generate call and returns the final assistant message.
// Partial chunks are discarded.
func Collect(ctx context.Context, m Model, req Request) (core.Message, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final    *Response
		respDone bool
		errDone  bool
	)

	for !respDone || !errDone {
		select {
		case <-ctx.Done():
			return core.Message{}, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respDone = true
				respCh = nil
				continue
			}
			if !resp.Partial {
				r := resp
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errDone = true
				errCh = nil
				continue
			}
			if err != nil {
				return core.Message{}, err
			}
		}
	}

	if final == nil {
		return core.Message{}, fmt.Errorf("%s: %w", m.Info().Name, ErrNoResponse)
	}

	msg := final.Message
	if msg.Role == "" {
		msg.Role = core.RoleAssistant
	}

	return msg, nil
}
