package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of interaction. After it is appended to a
// ConversationState it should be treated as immutable.
//
// Assistant messages may carry ToolCallParts next to (or instead of) text;
// tool messages carry exactly one ToolResultPart answering an earlier call.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh id and UTC timestamp.
func NewMessage(role Role, parts ...Part) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Parts:     parts,
		CreatedAt: time.Now().UTC(),
	}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return NewMessage(RoleUser, TextPart{Text: text})
}

// NewAssistantMessage creates an assistant message with optional text and tool calls.
func NewAssistantMessage(text string, calls ...ToolCall) Message {
	parts := make([]Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, TextPart{Text: text})
	}
	for _, c := range calls {
		parts = append(parts, ToolCallPart{ToolCall: c})
	}
	return NewMessage(RoleAssistant, parts...)
}

// NewToolMessage records the outcome of a previously requested tool call.
func NewToolMessage(result ToolResult) Message {
	return NewMessage(RoleTool, ToolResultPart{ToolResult: result})
}

// NewID generates a new unique identifier for messages, runs and threads.
func NewID() string { return uuid.NewString() }

// ToolCalls returns the tool call requests contained in the message
// preserving their original order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(ToolCallPart); ok {
			calls = append(calls, tc.ToolCall)
		}
	}
	return calls
}

// ToolResults returns the tool results contained in the message preserving
// their original order.
func (m Message) ToolResults() []ToolResult {
	var results []ToolResult
	for _, p := range m.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			results = append(results, tr.ToolResult)
		}
	}
	return results
}

// Text concatenates all text parts.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			sb.WriteString(tp.Text)
		}
	}
	return sb.String()
}

// HasToolCalls reports whether the message requests at least one tool call.
func (m Message) HasToolCalls() bool {
	for _, p := range m.Parts {
		if _, ok := p.(ToolCallPart); ok {
			return true
		}
	}
	return false
}

type partEnvelope struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

type messageJSON struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Parts     []partEnvelope `json:"parts"`
	CreatedAt time.Time      `json:"created_at"`
}

// MarshalJSON encodes parts with an explicit "type" discriminator.
func (m Message) MarshalJSON() ([]byte, error) {
	out := messageJSON{ID: m.ID, Role: m.Role, CreatedAt: m.CreatedAt, Parts: make([]partEnvelope, 0, len(m.Parts))}
	for _, p := range m.Parts {
		switch v := p.(type) {
		case TextPart:
			out.Parts = append(out.Parts, partEnvelope{Type: "text", Text: v.Text})
		case ToolCallPart:
			tc := v.ToolCall
			out.Parts = append(out.Parts, partEnvelope{Type: "tool_call", ToolCall: &tc})
		case ToolResultPart:
			tr := v.ToolResult
			out.Parts = append(out.Parts, partEnvelope{Type: "tool_result", ToolResult: &tr})
		default:
			return nil, fmt.Errorf("unsupported part type %T", p)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var in messageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	m.ID, m.Role, m.CreatedAt = in.ID, in.Role, in.CreatedAt
	m.Parts = make([]Part, 0, len(in.Parts))

	for _, p := range in.Parts {
		switch p.Type {
		case "text":
			m.Parts = append(m.Parts, TextPart{Text: p.Text})
		case "tool_call":
			if p.ToolCall == nil {
				return fmt.Errorf("tool_call part without payload")
			}
			m.Parts = append(m.Parts, ToolCallPart{ToolCall: *p.ToolCall})
		case "tool_result":
			if p.ToolResult == nil {
				return fmt.Errorf("tool_result part without payload")
			}
			m.Parts = append(m.Parts, ToolResultPart{ToolResult: *p.ToolResult})
		default:
			return fmt.Errorf("unknown part type %q", p.Type)
		}
	}

	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
