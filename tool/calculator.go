package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
)

// CalculatorName is the registered name of the calculator tool.
const CalculatorName = "calculator"

type calculatorArgs struct {
	Expression string `json:"expression" description:"Arithmetic expression, e.g. 2+2, (3.5*4)^2, sqrt(16)/pi"`
}

// NewCalculator returns the calculator tool. It is pure and synchronous and
// evaluates expressions with Evaluate; no other code is ever executed.
func NewCalculator() *FunctionTool {
	return NewTypedTool(
		CalculatorName,
		"Evaluates an arithmetic expression. Supports numbers, + - * / ^ and parentheses, "+
			"the constants pi and e, and the functions sqrt, abs, sin, cos, tan, asin, acos, atan, "+
			"exp, log, ln, log10, log2, floor, ceil, round, min and max. Only input math expressions.",
		func(_ *core.ToolContext, in calculatorArgs) (any, error) {
			v, err := Evaluate(in.Expression)
			if err != nil {
				code := CodeInvalidExpression
				if errors.Is(err, ErrEvaluation) {
					code = CodeEvaluation
				}

				return nil, &ToolError{
					Tool:    CalculatorName,
					Message: fmt.Sprintf("calculator(%q) raised error: %v. Please try again with a valid numerical expression", in.Expression, err),
					Code:    code,
				}
			}

			return FormatNumber(v), nil
		},
	)
}
