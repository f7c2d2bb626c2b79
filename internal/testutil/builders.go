package testutil

import (
	"github.com/hupe1980/agentgraph/core"
)

// StateBuilder helps construct conversation states with fluent chaining.
//
//	st := NewStateBuilder("t-1").User("hi").Assistant("hello").Build()
type StateBuilder struct {
	threadID string
	messages []core.Message
	intr     *core.Interrupt
}

// NewStateBuilder creates a builder for threadID.
func NewStateBuilder(threadID string) *StateBuilder {
	return &StateBuilder{threadID: threadID}
}

// User appends a user message (chainable).
func (b *StateBuilder) User(text string) *StateBuilder {
	b.messages = append(b.messages, core.NewUserMessage(text))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *StateBuilder) Assistant(text string, calls ...core.ToolCall) *StateBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(text, calls...))
	return b
}

// ToolResult appends a successful tool result (chainable).
func (b *StateBuilder) ToolResult(callID, name string, content any) *StateBuilder {
	b.messages = append(b.messages, core.NewToolMessage(core.ToolResult{CallID: callID, Name: name, Content: content}))
	return b
}

// Interrupt marks the state as suspended on question (chainable).
func (b *StateBuilder) Interrupt(callID, question string) *StateBuilder {
	b.intr = &core.Interrupt{Token: "tok-" + callID, CallID: callID, Question: question}
	return b
}

// Build returns the state.
func (b *StateBuilder) Build() *core.ConversationState {
	s := core.NewConversationState(b.threadID)
	s.Append(b.messages...)
	if b.intr != nil {
		in := *b.intr
		s.Interrupt = &in
	}
	return s
}
