package core

import (
	"fmt"
	"time"
)

// Interrupt marks a run suspended until a human supplies a follow-up
// message. Token is the resumable marker handed to the caller.
type Interrupt struct {
	Token     string    `json:"token,omitempty"`
	CallID    string    `json:"call_id"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationState is the unit of execution: the explicit value passed into
// and returned from every state-machine step.
//
// Contract:
//   - Messages only grow; earlier entries are never rewritten
//   - Step counts deciding entries of the current invocation and never
//     exceeds the configured recursion limit
//   - A state is owned by one in-flight execution at a time; the thread
//     store enforces this, the type itself is not synchronized
//   - Clone performs a copy safe for independent mutation
type ConversationState struct {
	ThreadID  string     `json:"thread_id"`
	Messages  []Message  `json:"messages"`
	Model     string     `json:"model"`
	Step      int        `json:"step"`
	Done      bool       `json:"done"`
	Truncated bool       `json:"truncated"`
	Interrupt *Interrupt `json:"interrupt,omitempty"`
	Created   time.Time  `json:"created"`
	Updated   time.Time  `json:"updated"`
}

// NewConversationState creates an empty state for threadID.
func NewConversationState(threadID string) *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{ThreadID: threadID, Messages: []Message{}, Created: now, Updated: now}
}

// Append adds messages to the history updating Updated timestamp.
func (s *ConversationState) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
	s.Updated = time.Now().UTC()
}

// LastMessage returns the most recent message, if any.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastAssistantText returns the text of the most recent assistant message
// that carried any text.
func (s *ConversationState) LastAssistantText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role != RoleAssistant {
			continue
		}
		if txt := s.Messages[i].Text(); txt != "" {
			return txt
		}
	}
	return ""
}

// Interrupted reports whether a resumable interrupt is pending.
func (s *ConversationState) Interrupted() bool { return s.Interrupt != nil }

// ResetRun clears per-invocation bookkeeping before a new run starts on
// an existing thread.
func (s *ConversationState) ResetRun() {
	s.Step = 0
	s.Done = false
	s.Truncated = false
}

// Clone returns a copy of the state safe for independent mutation. Messages
// are immutable values so a shallow copy of the slice suffices.
func (s *ConversationState) Clone() *ConversationState {
	clone := *s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	if s.Interrupt != nil {
		in := *s.Interrupt
		clone.Interrupt = &in
	}
	return &clone
}

// CheckToolResults verifies that every tool result answers a tool call that
// appears earlier in the conversation, and that no call is answered twice.
func (s *ConversationState) CheckToolResults() error {
	requested := map[string]bool{}
	answered := map[string]bool{}

	for i, m := range s.Messages {
		for _, c := range m.ToolCalls() {
			requested[c.ID] = true
		}
		for _, r := range m.ToolResults() {
			if !requested[r.CallID] {
				return fmt.Errorf("message %d: tool result %q has no preceding tool call", i, r.CallID)
			}
			if answered[r.CallID] {
				return fmt.Errorf("message %d: tool call %q answered twice", i, r.CallID)
			}
			answered[r.CallID] = true
		}
	}

	return nil
}
