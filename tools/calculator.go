package tools

import (
	"context"
	"fmt"
	"strconv"

	"agentic"
	"agentic/schema"
)

// NewCalculator creates the calculator tool: basic arithmetic on two
// numbers. Division by zero is an execution error the model can recover
// from.
func NewCalculator() *agentic.Tool {
	return agentic.NewTool(
		"calculator",
		"Performs basic arithmetic operations on two numbers",
		schema.MustCompile(schema.Object(map[string]*schema.Property{
			"operation": schema.String("Arithmetic operation to perform").
				Enum("add", "subtract", "multiply", "divide"),
			"x": schema.Number("Left operand"),
			"y": schema.Number("Right operand"),
		}, "operation", "x", "y")),
		func(ctx context.Context, args map[string]any, deps map[string]any) (any, error) {
			op := argString(args, "operation", "")
			x, _ := argFloat(args, "x")
			y, _ := argFloat(args, "y")

			var result float64
			switch op {
			case "add":
				result = x + y
			case "subtract":
				result = x - y
			case "multiply":
				result = x * y
			case "divide":
				if y == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				result = x / y
			default:
				return nil, fmt.Errorf("unknown operation %q", op)
			}

			return formatNumber(result), nil
		},
	)
}

// formatNumber renders whole results without a decimal point, matching how
// the model expects to read intermediate values back.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
