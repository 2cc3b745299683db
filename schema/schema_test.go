package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	type input struct {
		raw map[string]any
	}

	type expected struct {
		isNil  bool
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:     "nil schema returns nil",
			input:    input{raw: nil},
			expected: expected{isNil: true},
		},
		{
			name: "valid schema compiles",
			input: input{
				raw: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
				},
			},
			expected: expected{isNil: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.input.raw)

			if tt.expected.hasErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.expected.isNil {
				assert.Nil(t, s)
			} else {
				assert.NotNil(t, s)
				assert.NotNil(t, s.Raw())
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	type input struct {
		schema map[string]any
		args   map[string]any
	}

	type expected struct {
		errCount int
		field    string
		allowed  []string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "valid args pass",
			input: input{
				schema: Object(map[string]*Property{
					"name": String("User name"),
					"age":  Integer("User age"),
				}, "name"),
				args: map[string]any{"name": "John", "age": 30},
			},
			expected: expected{errCount: 0},
		},
		{
			name: "missing required field reported by name",
			input: input{
				schema: Object(map[string]*Property{
					"city": String("City name"),
				}, "city"),
				args: map[string]any{},
			},
			expected: expected{errCount: 1, field: "city"},
		},
		{
			name: "wrong type reported by name",
			input: input{
				schema: Object(map[string]*Property{
					"count": Integer("A count"),
				}),
				args: map[string]any{"count": "not an integer"},
			},
			expected: expected{errCount: 1, field: "count"},
		},
		{
			name: "enum violation lists accepted values",
			input: input{
				schema: Object(map[string]*Property{
					"operation": String("Arithmetic operation").
						Enum("add", "subtract", "multiply", "divide"),
				}, "operation"),
				args: map[string]any{"operation": "modulo"},
			},
			expected: expected{
				errCount: 1,
				field:    "operation",
				allowed:  []string{"add", "subtract", "multiply", "divide"},
			},
		},
		{
			name: "multiple failures reported per field",
			input: input{
				schema: Object(map[string]*Property{
					"operation": String("Op").Enum("add", "subtract"),
					"x":         Number("Left operand"),
					"y":         Number("Right operand"),
				}, "operation", "x", "y"),
				args: map[string]any{"operation": "power", "x": "five"},
			},
			expected: expected{errCount: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile(tt.input.schema)
			require.NoError(t, err)

			fieldErrs := s.Validate(tt.input.args)
			assert.Len(t, fieldErrs, tt.expected.errCount)

			if tt.expected.field != "" {
				require.NotEmpty(t, fieldErrs)
				assert.Equal(t, tt.expected.field, fieldErrs[0].Field)
			}
			if tt.expected.allowed != nil {
				require.NotEmpty(t, fieldErrs)
				assert.Equal(t, tt.expected.allowed, fieldErrs[0].Allowed)
			}
		})
	}
}

func TestSchema_Validate_NilSchema(t *testing.T) {
	var s *Schema
	errs := s.Validate(map[string]any{"foo": "bar"})
	assert.Nil(t, errs, "nil schema should always pass validation")
}

func TestSchema_Validate_IntegerAcceptsWholeFloat(t *testing.T) {
	s := MustCompile(Object(map[string]*Property{
		"days": Integer("Forecast days"),
	}, "days"))

	assert.Nil(t, s.Validate(map[string]any{"days": float64(3)}),
		"3.0 decoded from JSON should satisfy an integer field")
	assert.NotNil(t, s.Validate(map[string]any{"days": 3.5}))
}

func TestFieldError_String(t *testing.T) {
	e := FieldError{
		Field:   "operation",
		Problem: "value modulo is not allowed",
		Allowed: []string{"add", "subtract"},
	}
	assert.Equal(t,
		"- Field 'operation': value modulo is not allowed (accepted values: add, subtract)",
		e.String())

	plain := FieldError{Field: "x", Problem: "field required"}
	assert.Equal(t, "- Field 'x': field required", plain.String())
}

func TestMustCompile(t *testing.T) {
	assert.NotNil(t, MustCompile(map[string]any{"type": "object"}))
	assert.Nil(t, MustCompile(nil))
}

func TestObject_Basic(t *testing.T) {
	schema := Object(map[string]*Property{
		"name": String("The name"),
		"age":  Integer("The age"),
	}, "name")

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "expected properties map")
	assert.Len(t, props, 2)

	required, ok := schema["required"].([]string)
	require.True(t, ok, "expected required array")
	assert.Equal(t, []string{"name"}, required)
}

func TestProperty_Builders(t *testing.T) {
	built := Number("Temperature").Min(-40).Max(50).build()
	assert.Equal(t, "number", built["type"])
	assert.Equal(t, float64(-40), built["minimum"])
	assert.Equal(t, float64(50), built["maximum"])

	built = String("Status").Enum("pending", "done").Default("pending").build()
	assert.Equal(t, []any{"pending", "done"}, built["enum"])
	assert.Equal(t, "pending", built["default"])

	built = Array("Tags", map[string]any{"type": "string"}).build()
	assert.Equal(t, "array", built["type"])
	assert.NotNil(t, built["items"])

	built = Boolean("Verbose").build()
	assert.Equal(t, "boolean", built["type"])
}
