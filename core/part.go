package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string `json:"text"`
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ToolCall describes a model request to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`                  // Correlates the eventual ToolResult
	Name      string `json:"name"`                // Tool name as registered
	Arguments string `json:"arguments,omitempty"` // JSON encoded argument object
}

// ToolCallPart wraps a ToolCall as a content part.
type ToolCallPart struct {
	ToolCall ToolCall `json:"tool_call"`
}

// isPart implements the Part interface for ToolCallPart.
func (ToolCallPart) isPart() {}

// ToolResult describes the outcome of a ToolCall. Exactly one of Content or
// Error is meaningful; IsError reports which.
type ToolResult struct {
	CallID  string `json:"call_id"`           // Matches originating ToolCall.ID
	Name    string `json:"name"`              // Tool name
	Content any    `json:"content,omitempty"` // Successful result (any JSON-serializable shape)
	Error   string `json:"error,omitempty"`   // Populated on failure
	Code    string `json:"code,omitempty"`    // Error code, e.g. SEARCH_UNAVAILABLE
}

// IsError reports whether the result carries a failure payload.
func (r ToolResult) IsError() bool { return r.Error != "" }

// Text renders the result as the text a model sees.
func (r ToolResult) Text() string {
	if r.IsError() {
		return "Error: " + r.Error
	}
	return stringify(r.Content)
}

// ToolResultPart wraps a ToolResult as a content part.
type ToolResultPart struct {
	ToolResult ToolResult `json:"tool_result"`
}

// isPart implements the Part interface for ToolResultPart.
func (ToolResultPart) isPart() {}
