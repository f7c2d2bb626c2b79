package tool

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{" 2 + 3 * 4 ", 14},
		{"(2+3)*4", 20},
		{"10/4", 2.5},
		{"2^3^2", 512},
		{"2**10", 1024},
		{"-2^2", -4},
		{"(-2)^2", 4},
		{"--3", 3},
		{"1.5e3", 1500},
		{"sqrt(16)", 4},
		{"abs(-3.5)", 3.5},
		{"max(1, 7, 3)", 7},
		{"min(4, 2)", 2},
		{"floor(2.7) + ceil(2.1)", 5},
		{"log10(1000)", 3},
		{"ln(e)", 1},
		{"round(pi * 100)", 314},
		{"cos(0)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		expr string
		kind error
	}{
		{"", ErrInvalidExpression},
		{"2+", ErrInvalidExpression},
		{"(1+2", ErrInvalidExpression},
		{"1+2)", ErrInvalidExpression},
		{"foo(1)", ErrInvalidExpression},
		{"x + 1", ErrInvalidExpression},
		{"__import__('os')", ErrInvalidExpression},
		{"2 $ 3", ErrInvalidExpression},
		{"2×3", ErrInvalidExpression},
		{"café", ErrInvalidExpression},
		{"π*2", ErrInvalidExpression},
		{"\u00a01+1", ErrInvalidExpression},
		{"1..2", ErrInvalidExpression},
		{"sqrt(1, 2)", ErrInvalidExpression},
		{"1/0", ErrEvaluation},
		{"5/(3-3)", ErrEvaluation},
		{"sqrt(-1)", ErrEvaluation},
		{"log(0)", ErrEvaluation},
		{"(-8)^0.5", ErrEvaluation},
		{"10^400", ErrEvaluation},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestEvaluate_NonASCIIReturns(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		_, err := Evaluate("2×3 + ä")
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrInvalidExpression)
		assert.ErrorContains(t, err, `unsupported character '×'`)
	case <-time.After(2 * time.Second):
		t.Fatal("Evaluate did not return for non-ASCII input")
	}
}

func TestEvaluate_Limits(t *testing.T) {
	_, err := Evaluate(strings.Repeat("1+", maxExpressionLength) + "1")
	assert.ErrorIs(t, err, ErrInvalidExpression)

	deep := strings.Repeat("(", maxExpressionDepth+1) + "1" + strings.Repeat(")", maxExpressionDepth+1)
	_, err = Evaluate(deep)
	assert.ErrorIs(t, err, ErrInvalidExpression)
	assert.ErrorContains(t, err, "nested")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "4", FormatNumber(4))
	assert.Equal(t, "-12", FormatNumber(-12))
	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "1e+20", FormatNumber(1e20))
	assert.Equal(t, "3.141592653589793", FormatNumber(math.Pi))
}

func TestCalculatorTool(t *testing.T) {
	calc := NewCalculator()

	out, err := calc.Call(newToolContext(CalculatorName), map[string]any{"expression": "2+2"})
	require.NoError(t, err)
	assert.Equal(t, "4", out)

	_, err = calc.Call(newToolContext(CalculatorName), map[string]any{"expression": "2+*"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeInvalidExpression, toolErr.Code)
	assert.Contains(t, toolErr.Message, `calculator("2+*") raised error`)
	assert.Contains(t, toolErr.Message, "Please try again with a valid numerical expression")

	_, err = calc.Call(newToolContext(CalculatorName), map[string]any{"expression": "1/0"})
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeEvaluation, toolErr.Code)

	_, err = calc.Call(newToolContext(CalculatorName), map[string]any{})
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}
