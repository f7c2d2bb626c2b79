package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantMessage_ToolCalls(t *testing.T) {
	msg := NewAssistantMessage("let me check",
		ToolCall{ID: "c1", Name: "calculator", Arguments: `{"expression":"2+2"}`},
		ToolCall{ID: "c2", Name: "web_search", Arguments: `{"query":"go"}`},
	)

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.NotEmpty(t, msg.ID)
	assert.True(t, msg.HasToolCalls())
	assert.Equal(t, "let me check", msg.Text())

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "c1", calls[0].ID)
	assert.Equal(t, "web_search", calls[1].Name)
}

func TestToolResult_Text(t *testing.T) {
	ok := ToolResult{CallID: "c1", Name: "calculator", Content: "4"}
	assert.Equal(t, "4", ok.Text())
	assert.False(t, ok.IsError())

	structured := ToolResult{CallID: "c2", Content: []string{"a", "b"}}
	assert.Equal(t, `["a","b"]`, structured.Text())

	failed := ToolResult{CallID: "c3", Error: "provider unreachable", Code: "SEARCH_UNAVAILABLE"}
	assert.True(t, failed.IsError())
	assert.Equal(t, "Error: provider unreachable", failed.Text())
}

func TestMessage_JSONPreservesPartKinds(t *testing.T) {
	orig := []Message{
		NewUserMessage("hi"),
		NewAssistantMessage("", ToolCall{ID: "c1", Name: "calculator", Arguments: `{"expression":"1+1"}`}),
		NewToolMessage(ToolResult{CallID: "c1", Name: "calculator", Content: "2"}),
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"tool_call"`)

	var decoded []Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 3)

	assert.Equal(t, "hi", decoded[0].Text())
	assert.Equal(t, orig[1].ToolCalls(), decoded[1].ToolCalls())
	assert.Equal(t, "2", decoded[2].ToolResults()[0].Text())
}

func TestMessage_UnmarshalRejectsUnknownPart(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"id":"x","role":"user","parts":[{"type":"image"}]}`), &m)
	assert.Error(t, err)
}
