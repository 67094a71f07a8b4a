package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"strconv"
)

// CalculatorTool evaluates arithmetic expressions.
type CalculatorTool struct{}

// NewCalculatorTool creates the calculator.
func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (t *CalculatorTool) ID() string { return "calculator" }

func (t *CalculatorTool) Description() string {
	return "Evaluates a mathematical expression, e.g. \"(2 + 3) * 4\" or \"7.5 / 2\"."
}

func (t *CalculatorTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"expression": {"type": "string", "description": "The arithmetic expression to evaluate"}
		},
		"required": ["expression"]
	}`)
}

func (t *CalculatorTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Expression string `json:"expression"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if in.Expression == "" {
		return "", fmt.Errorf("expression is required")
	}
	return Evaluate(in.Expression)
}

// Evaluate computes an arithmetic expression using the compiler's constant
// evaluator, so no runtime code execution is involved. Mixed int/float
// arithmetic, parentheses, and the usual operators all work.
func Evaluate(expression string) (string, error) {
	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, expression)
	if err != nil {
		return "", fmt.Errorf("invalid expression: %w", err)
	}
	if tv.Value == nil {
		return "", fmt.Errorf("expression %q is not a constant arithmetic expression", expression)
	}

	switch tv.Value.Kind() {
	case constant.Int:
		return tv.Value.ExactString(), nil
	case constant.Float:
		f, _ := constant.Float64Val(tv.Value)
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("expression %q does not evaluate to a number", expression)
	}
}
