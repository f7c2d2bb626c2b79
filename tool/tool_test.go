package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

func newToolContext(name string) *core.ToolContext {
	ctx := context.Background()
	rc := core.NewRunContext(ctx, "thread-1", "run-1", "agent", logging.NoOpLogger{})
	return core.NewToolContext(ctx, rc, "call-1", name)
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	sumTool := NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})

	result, err := sumTool.Call(newToolContext("sum"), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
		},
		"required": []any{"a"},
	}
	tTool := NewFunctionTool("test", "Test", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return 0, nil
	})

	_, err := tTool.Call(newToolContext("test"), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := execTool.Call(newToolContext("fail"), map[string]any{})

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_ToolErrorPassesThrough(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	custom := NewFunctionTool("custom", "Custom", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, NewToolError("custom", "quota", "E_QUOTA")
	})

	_, err := custom.Call(newToolContext("custom"), nil)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "E_QUOTA", toolErr.Code)
}

type greetArgs struct {
	Name  string `json:"name" description:"Who to greet"`
	Times int    `json:"times,omitempty"`
}

func TestTypedTool_DerivesSchemaAndDecodes(t *testing.T) {
	greet := NewTypedTool("greet", "Greets", func(_ *core.ToolContext, in greetArgs) (any, error) {
		if in.Times == 0 {
			in.Times = 1
		}
		return map[string]any{"name": in.Name, "times": in.Times}, nil
	})

	assert.Equal(t, []string{"name"}, greet.Parameters()["required"])

	out, err := greet.Call(newToolContext("greet"), map[string]any{"name": "Ada", "times": 2.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ada", "times": 2}, out)

	_, err = greet.Call(newToolContext("greet"), map[string]any{"name": 42.0})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")

	plain := &ToolError{Tool: "demo", Message: "x"}
	assert.Equal(t, "tool error in demo: x", plain.Error())
}

// -------------------- Registry Tests --------------------

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(NewCalculator(), NewAskHuman())
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{CalculatorName, AskHumanName}, reg.Names())

	calc, ok := reg.Get(CalculatorName)
	require.True(t, ok)
	assert.Equal(t, CalculatorName, calc.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, CalculatorName, defs[0].Name)
	assert.NotEmpty(t, defs[0].Description)
	assert.Equal(t, "object", defs[0].Parameters["type"])
}

func TestRegistry_Rejects(t *testing.T) {
	_, err := NewRegistry(NewCalculator(), NewCalculator())
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewRegistry(nil)
	assert.Error(t, err)

	_, err = NewRegistry(NewFunctionTool(" ", "blank", nil, nil))
	assert.ErrorContains(t, err, "empty")

	assert.Panics(t, func() { MustRegistry(NewAskHuman(), NewAskHuman()) })
}

func TestRegistry_NilSafe(t *testing.T) {
	var reg *Registry

	_, ok := reg.Get(CalculatorName)
	assert.False(t, ok)
	assert.Zero(t, reg.Len())
	assert.Nil(t, reg.Names())
	assert.Nil(t, reg.Definitions())
}
