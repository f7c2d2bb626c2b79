package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages(model.Request{
		Instructions: "Be helpful.",
		Messages: []core.Message{
			core.NewUserMessage("What is 2+2?"),
			core.NewAssistantMessage("", core.ToolCall{ID: "c1", Name: "calculator", Arguments: `{"expression":"2+2"}`}),
			core.NewToolMessage(core.ToolResult{CallID: "c1", Name: "calculator", Content: "4"}),
			core.NewAssistantMessage("4"),
		},
	})

	require.Len(t, msgs, 5)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "c1", msgs[2].OfAssistant.ToolCalls[0].ID)
	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)
	assert.NotNil(t, msgs[4].OfAssistant)
}

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.RequestOptions = []option.RequestOption{
			option.WithBaseURL(server.URL),
			option.WithMaxRetries(0),
		}
	})
}

func TestGenerate_ToolCalls(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "gpt-4o-mini", payload["model"])
		assert.Len(t, payload["tools"], 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": null,
					"tool_calls": [{"id": "call_a", "type": "function", "function": {"name": "calculator", "arguments": "{\"expression\":\"2+2\"}"}}]
				}
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
		}`))
	})

	msg, err := model.Collect(context.Background(), m, model.Request{
		Messages: []core.Message{core.NewUserMessage("What is 2+2?")},
		Tools:    []model.ToolDefinition{{Name: "calculator", Description: "math", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_a", calls[0].ID)
	assert.Equal(t, "calculator", calls[0].Name)
	assert.JSONEq(t, `{"expression":"2+2"}`, calls[0].Arguments)
}

func TestGenerate_StructuredOutput(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var payload struct {
			ResponseFormat map[string]any `json:"response_format"`
			Tools          []any          `json:"tools"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "json_schema", payload.ResponseFormat["type"])
		assert.Empty(t, payload.Tools)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"key_topics\":[\"Go\"]}"}}]
		}`))
	})

	msg, err := model.Collect(context.Background(), m, model.Request{
		Messages:       []core.Message{core.NewUserMessage("transcript")},
		Tools:          []model.ToolDefinition{{Name: "ignored"}},
		ResponseSchema: &model.ResponseSchema{Name: "transcript_summary", Schema: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key_topics":["Go"]}`, msg.Text())
}

func TestGenerate_QuotaErrorIsRetryableProviderError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})

	_, err := model.Collect(context.Background(), m, model.Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
	})

	var pe *core.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.ProviderErrorQuota, pe.Kind)
	assert.True(t, core.IsRetryable(err))
}

func TestGenerate_NoChoices(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`))
	})

	_, err := model.Collect(context.Background(), m, model.Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
	})

	var pe *core.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.ProviderErrorBadResponse, pe.Kind)
}

func TestFactory(t *testing.T) {
	m := Factory()("gpt-4o", "k")
	assert.Equal(t, model.Info{Name: "gpt-4o", Provider: "openai", SupportsTools: true}, m.Info())
}
