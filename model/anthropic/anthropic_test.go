package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

func TestBuildMessages_ToolResultsInUserTurn(t *testing.T) {
	msgs := buildMessages([]core.Message{
		core.NewMessage(core.RoleSystem, core.TextPart{Text: "ignored here"}),
		core.NewUserMessage("What is 2+2 and 3+3?"),
		core.NewAssistantMessage("",
			core.ToolCall{ID: "c1", Name: "calculator", Arguments: `{"expression":"2+2"}`},
			core.ToolCall{ID: "c2", Name: "calculator", Arguments: `{"expression":"3+3"}`},
		),
		core.NewToolMessage(core.ToolResult{CallID: "c1", Name: "calculator", Content: "4"}),
		core.NewToolMessage(core.ToolResult{CallID: "c2", Name: "calculator", Error: "boom"}),
		core.NewAssistantMessage("4 and unknown"),
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 2)

	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	require.Len(t, msgs[2].Content, 2)
	require.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.Equal(t, "c1", msgs[2].Content[0].OfToolResult.ToolUseID)
	require.NotNil(t, msgs[2].Content[1].OfToolResult)
	assert.Equal(t, "c2", msgs[2].Content[1].OfToolResult.ToolUseID)

	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[3].Role)
}

func TestBuildSystem(t *testing.T) {
	blocks := buildSystem(model.Request{
		Instructions: "Be helpful.",
		Messages:     []core.Message{core.NewMessage(core.RoleSystem, core.TextPart{Text: "Extra."})},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "Be helpful.", blocks[0].Text)
	assert.Equal(t, "Extra.", blocks[1].Text)
}

func TestBuildTool(t *testing.T) {
	tool := buildTool(model.ToolDefinition{
		Name:        "calculator",
		Description: "math",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"expression": map[string]any{"type": "string"}},
			"required":   []any{"expression"},
		},
	})

	require.NotNil(t, tool.OfTool)
	assert.Equal(t, "calculator", tool.OfTool.Name)
	assert.Equal(t, []string{"expression"}, tool.OfTool.InputSchema.Required)
}

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.Model = anthropic.Model("claude-3-haiku-20240307")
		o.RequestOptions = []option.RequestOption{
			option.WithBaseURL(server.URL),
			option.WithMaxRetries(0),
		}
	})
}

func TestGenerate_ToolUse(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "claude-3-haiku-20240307", payload["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-haiku-20240307",
			"content": [
				{"type": "text", "text": "Let me calculate."},
				{"type": "tool_use", "id": "toolu_1", "name": "calculator", "input": {"expression": "2+2"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	})

	msg, err := model.Collect(context.Background(), m, model.Request{
		Messages: []core.Message{core.NewUserMessage("What is 2+2?")},
		Tools:    []model.ToolDefinition{{Name: "calculator", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Let me calculate.", msg.Text())
	calls := msg.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_1", calls[0].ID)
	assert.JSONEq(t, `{"expression":"2+2"}`, calls[0].Arguments)
}

func TestGenerate_StructuredOutputForcesTool(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var payload struct {
			ToolChoice map[string]any `json:"tool_choice"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "tool", payload.ToolChoice["type"])
		assert.Equal(t, "transcript_summary", payload.ToolChoice["name"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-haiku-20240307",
			"content": [
				{"type": "tool_use", "id": "toolu_2", "name": "transcript_summary", "input": {"key_topics": ["Go"]}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	})

	msg, err := model.Collect(context.Background(), m, model.Request{
		Messages:       []core.Message{core.NewUserMessage("transcript")},
		ResponseSchema: &model.ResponseSchema{Name: "transcript_summary", Schema: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)

	assert.False(t, msg.HasToolCalls())
	assert.JSONEq(t, `{"key_topics":["Go"]}`, msg.Text())
}

func TestGenerate_AuthErrorIsProviderError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})

	_, err := model.Collect(context.Background(), m, model.Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
	})

	var pe *core.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, core.ProviderErrorAuth, pe.Kind)
	assert.Equal(t, model.ProviderAnthropic, pe.Provider)
	assert.False(t, core.IsRetryable(err))
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) { o.Model = "claude-3-5-haiku-latest" })
	assert.Equal(t, model.Info{Name: "claude-3-5-haiku-latest", Provider: "anthropic", SupportsTools: true}, m.Info())

	built := Factory()("claude-3-haiku-20240307", "k")
	assert.Equal(t, "claude-3-haiku-20240307", built.Info().Name)
}
