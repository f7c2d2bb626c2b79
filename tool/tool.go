// Package tool implements the tool registry that lets agents invoke
// structured capabilities (computation, retrieval, human hand-off) with
// schema validated arguments, consistent error handling and metadata for
// model guidance.
package tool

import (
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are bound to agents through a Registry and resolved by name when the
// model emits a tool call. All tools receive a ToolContext giving access to
// the tool-scoped context (bounded by the tool timeout), logging and the
// interrupt hook.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Report failures as *ToolError so the model can react to them
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This description is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with structured arguments and ToolContext.
	// Arguments are parsed from JSON and validated against the tool's schema.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeExecution         = "EXECUTION_ERROR"
	CodeInvalidExpression = "INVALID_EXPRESSION"
	CodeEvaluation        = "EVALUATION_ERROR"
	CodeSearchUnavailable = "SEARCH_UNAVAILABLE"
	CodeNotFound          = "TOOL_NOT_FOUND"
	CodeTimeout           = "TIMEOUT"
	CodePanic             = "PANIC"
)

// ToolError represents errors that occur during tool execution. It is always
// recoverable: the graph converts it into a tool result visible to the model.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
