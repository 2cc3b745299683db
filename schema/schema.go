// Package schema builds and validates JSON Schemas for tool arguments.
//
// # Quick Start
//
//	calc := agentic.NewTool(
//	    "calculator",
//	    "Perform arithmetic",
//	    schema.MustCompile(schema.Object(map[string]*schema.Property{
//	        "operation": schema.String("Arithmetic operation").Enum("add", "subtract", "multiply", "divide"),
//	        "x":         schema.Number("Left operand"),
//	        "y":         schema.Number("Right operand"),
//	    }, "operation", "x", "y")),
//	    calcFunc,
//	)
//
// Validation is backed by a compiled santhosh-tekuri/jsonschema validator.
// On failure, [Schema.Validate] reduces the result to per-field diagnostics
// so the model is told, for every bad argument, the field name, what was
// wrong with it, and the full list of accepted values when the field is
// enum-constrained.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a JSON Schema carrying both its raw map form (for prompts and
// serialization) and a compiled validator.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// Raw returns the underlying map[string]any representation.
// This is what gets embedded in rendered system prompts.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// MarshalJSON serializes the raw schema form.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.raw)
}

// FieldError describes one invalid or missing argument field.
type FieldError struct {
	// Field is the argument name, or "(arguments)" for document-level
	// problems the field walk cannot attribute.
	Field string

	// Problem describes what is wrong with the field.
	Problem string

	// Allowed lists the accepted values for enum-constrained fields.
	Allowed []string
}

func (e FieldError) String() string {
	msg := fmt.Sprintf("- Field '%s': %s", e.Field, e.Problem)
	if len(e.Allowed) > 0 {
		msg += fmt.Sprintf(" (accepted values: %s)", strings.Join(e.Allowed, ", "))
	}
	return msg
}

// Validate checks args against the schema. It returns nil when valid,
// otherwise one FieldError per offending field. A nil schema accepts
// everything.
func (s *Schema) Validate(args map[string]any) []FieldError {
	if s == nil || s.compiled == nil {
		return nil
	}
	if err := s.compiled.Validate(toJSONValue(args)); err == nil {
		return nil
	}

	fieldErrs := s.explain(args)
	if len(fieldErrs) == 0 {
		// The compiled validator rejected args for a constraint the
		// field walk doesn't cover (pattern, min/max, etc). Surface the
		// validator's own message.
		err := s.compiled.Validate(toJSONValue(args))
		fieldErrs = append(fieldErrs, FieldError{
			Field:   "(arguments)",
			Problem: fmt.Sprintf("%v", err),
		})
	}
	return fieldErrs
}

// explain walks the raw schema producing per-field diagnostics for the
// common failure modes: missing required fields, type mismatches, and
// enum violations.
func (s *Schema) explain(args map[string]any) []FieldError {
	var errs []FieldError

	props, _ := s.raw["properties"].(map[string]any)

	for _, name := range requiredNames(s.raw["required"]) {
		if _, present := args[name]; !present {
			errs = append(errs, FieldError{
				Field:   name,
				Problem: "field required",
				Allowed: enumValues(props[name]),
			})
		}
	}

	for name, value := range args {
		propSchema, ok := props[name].(map[string]any)
		if !ok {
			continue
		}

		if typ, ok := propSchema["type"].(string); ok && !typeMatches(typ, value) {
			errs = append(errs, FieldError{
				Field:   name,
				Problem: fmt.Sprintf("expected %s, got %T (%v)", typ, value, value),
			})
			continue
		}

		if allowed := enumValues(propSchema); allowed != nil && !enumContains(propSchema, value) {
			errs = append(errs, FieldError{
				Field:   name,
				Problem: fmt.Sprintf("value %v is not allowed", value),
				Allowed: allowed,
			})
		}
	}

	return errs
}

// requiredNames accepts both []string (builder output) and []any (schemas
// decoded from JSON).
func requiredNames(required any) []string {
	switch v := required.(type) {
	case []string:
		return v
	case []any:
		names := make([]string, 0, len(v))
		for _, n := range v {
			if s, ok := n.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

func typeMatches(typ string, value any) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		default:
			return false
		}
	case "number":
		switch value.(type) {
		case int, int64, float64:
			return true
		default:
			return false
		}
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func enumValues(propSchema any) []string {
	m, ok := propSchema.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["enum"].([]any)
	if !ok {
		return nil
	}
	values := make([]string, len(raw))
	for i, v := range raw {
		values[i] = fmt.Sprintf("%v", v)
	}
	return values
}

func enumContains(propSchema map[string]any, value any) bool {
	raw, ok := propSchema["enum"].([]any)
	if !ok {
		return true
	}
	for _, v := range raw {
		if fmt.Sprintf("%v", v) == fmt.Sprintf("%v", value) {
			return true
		}
	}
	return false
}

// toJSONValue round-trips args through encoding/json so the compiled
// validator sees the same value shapes it would see for parsed JSON
// (ints become float64, nested maps become map[string]any, etc).
func toJSONValue(args map[string]any) any {
	data, err := json.Marshal(args)
	if err != nil {
		return args
	}
	value, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return args
	}
	return value
}

// Compile compiles a raw schema map into a Schema with a compiled
// validator. A nil map compiles to a nil Schema, which accepts everything.
func Compile(raw map[string]any) (*Schema, error) {
	if raw == nil {
		return nil, nil
	}

	schemaJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaData, err := jsonschema.UnmarshalJSON(strings.NewReader(string(schemaJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{
		raw:      raw,
		compiled: compiled,
	}, nil
}

// MustCompile is like Compile but panics on error.
// Use this for schemas defined at init time.
func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// -----------------------------------------------------------------------------
// Schema Builders
// -----------------------------------------------------------------------------

// Object creates an object schema with the given properties.
// Pass property names as variadic arguments to mark them as required.
//
// Example:
//
//	schema.Object(map[string]*schema.Property{
//	    "city": schema.String("City name"),
//	    "days": schema.Integer("Forecast days").Min(1).Max(7),
//	}, "city")
func Object(properties map[string]*Property, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, prop := range properties {
		props[name] = prop.build()
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// Property represents a property in an object schema.
type Property struct {
	typ         string
	description string
	enum        []any
	minimum     *float64
	maximum     *float64
	pattern     string
	items       map[string]any
	def         any
}

func (p *Property) build() map[string]any {
	m := map[string]any{}

	if p.typ != "" {
		m["type"] = p.typ
	}
	if p.description != "" {
		m["description"] = p.description
	}
	if len(p.enum) > 0 {
		m["enum"] = p.enum
	}
	if p.minimum != nil {
		m["minimum"] = *p.minimum
	}
	if p.maximum != nil {
		m["maximum"] = *p.maximum
	}
	if p.pattern != "" {
		m["pattern"] = p.pattern
	}
	if p.items != nil {
		m["items"] = p.items
	}
	if p.def != nil {
		m["default"] = p.def
	}

	return m
}

// String creates a string property.
func String(description string) *Property {
	return &Property{typ: "string", description: description}
}

// Integer creates an integer property.
func Integer(description string) *Property {
	return &Property{typ: "integer", description: description}
}

// Number creates a number property (floating point).
func Number(description string) *Property {
	return &Property{typ: "number", description: description}
}

// Boolean creates a boolean property.
func Boolean(description string) *Property {
	return &Property{typ: "boolean", description: description}
}

// Array creates an array property with the given item schema.
func Array(description string, items map[string]any) *Property {
	return &Property{typ: "array", description: description, items: items}
}

// Enum sets allowed values for the property.
func (p *Property) Enum(values ...any) *Property {
	p.enum = values
	return p
}

// Min sets the minimum value for number/integer properties.
func (p *Property) Min(min float64) *Property {
	p.minimum = &min
	return p
}

// Max sets the maximum value for number/integer properties.
func (p *Property) Max(max float64) *Property {
	p.maximum = &max
	return p
}

// Pattern sets a regex pattern for string validation.
func (p *Property) Pattern(pattern string) *Property {
	p.pattern = pattern
	return p
}

// Default sets the default value for the property.
func (p *Property) Default(value any) *Property {
	p.def = value
	return p
}
