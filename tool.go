package agentic

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"agentic/schema"
)

// ToolFunc is the execution logic of a tool. Args have already passed schema
// validation when the function runs. Deps carries the tool's injected
// dependencies (API clients, filesystem handles, clocks).
type ToolFunc func(ctx context.Context, args map[string]any, deps map[string]any) (any, error)

// Tool wraps execution logic with schema validation and a hard guarantee:
// Run never returns an error and never panics. Every failure mode becomes a
// tool Message with an ErrorCode so the loop can show it to the model, which
// routinely recovers by correcting its arguments on the next turn.
type Tool struct {
	name         string
	description  string
	inputSchema  *schema.Schema
	fn           ToolFunc
	deps         map[string]any
	requiredDeps []string
}

// NewTool creates a Tool. A nil schema accepts any arguments.
func NewTool(name, description string, inputSchema *schema.Schema, fn ToolFunc) *Tool {
	return &Tool{
		name:        name,
		description: description,
		inputSchema: inputSchema,
		fn:          fn,
	}
}

// WithDependencies injects named dependencies passed to every invocation.
// Returns the tool for chaining.
func (t *Tool) WithDependencies(deps map[string]any) *Tool {
	t.deps = deps
	return t
}

// WithRequiredDependencies declares the dependency keys the tool's function
// expects. When set, Run rejects invocations whose injected dependencies do
// not match the declared keys exactly. Returns the tool for chaining.
func (t *Tool) WithRequiredDependencies(keys ...string) *Tool {
	t.requiredDeps = keys
	return t
}

// Name returns the tool's identifier used in tool calls.
func (t *Tool) Name() string {
	return t.name
}

// Description returns the human-readable description shown to the model.
func (t *Tool) Description() string {
	return t.description
}

// InputSchema returns the tool's argument schema, nil when unconstrained.
func (t *Tool) InputSchema() *schema.Schema {
	return t.inputSchema
}

// Run validates args and executes the tool. The returned Message always has
// role "tool" and the tool's name; on failure its ErrorCode distinguishes
// bad arguments from execution errors.
func (t *Tool) Run(ctx context.Context, args map[string]any) (msg Message) {
	// A panicking tool must not take the loop down with it.
	defer func() {
		if r := recover(); r != nil {
			msg = t.errorMessage(
				fmt.Sprintf("Tool execution error: panic: %v", r),
				ErrCodeExecutionError,
			)
		}
	}()

	if fieldErrs := t.inputSchema.Validate(args); len(fieldErrs) > 0 {
		lines := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			lines[i] = fe.String()
		}
		return t.errorMessage(
			fmt.Sprintf("Invalid arguments for tool '%s':\n%s", t.name, strings.Join(lines, "\n")),
			ErrCodeValidationError,
		)
	}

	if mismatch := t.dependencyMismatch(); mismatch != "" {
		return t.errorMessage(mismatch, ErrCodeExecutionError)
	}

	result, err := t.fn(ctx, args, t.deps)
	if err != nil {
		if ctx.Err() != nil {
			return t.errorMessage(
				fmt.Sprintf("Tool execution error: %v", err),
				ErrCodeTimeout,
			)
		}
		return t.errorMessage(
			fmt.Sprintf("Tool execution error: %v", err),
			ErrCodeExecutionError,
		)
	}

	return Message{
		Role:      RoleTool,
		Content:   stringifyResult(result),
		Name:      t.name,
		Timestamp: time.Now(),
	}
}

// dependencyMismatch checks the injected dependencies against the declared
// keys. Returns a diagnostic listing what was actually provided, or "" when
// the shapes match (or no keys were declared).
func (t *Tool) dependencyMismatch() string {
	if len(t.requiredDeps) == 0 {
		return ""
	}

	required := make(map[string]bool, len(t.requiredDeps))
	for _, key := range t.requiredDeps {
		required[key] = true
	}

	mismatch := len(t.deps) != len(required)
	if !mismatch {
		for key := range t.deps {
			if !required[key] {
				mismatch = true
				break
			}
		}
	}
	if !mismatch {
		return ""
	}

	provided := make([]string, 0, len(t.deps))
	for key := range t.deps {
		provided = append(provided, key)
	}
	sort.Strings(provided)
	wanted := append([]string(nil), t.requiredDeps...)
	sort.Strings(wanted)

	return fmt.Sprintf(
		"Tool '%s' dependency mismatch: requires [%s], provided [%s]",
		t.name, strings.Join(wanted, ", "), strings.Join(provided, ", "))
}

func (t *Tool) errorMessage(content string, code ErrorCode) Message {
	return Message{
		Role:      RoleTool,
		Content:   content,
		Name:      t.name,
		ErrorCode: code,
		Timestamp: time.Now(),
	}
}

// RenderSchema renders the tool's name, description, and argument schema as
// the block embedded in the system prompt.
func (t *Tool) RenderSchema() string {
	args := "{}"
	if t.inputSchema != nil {
		if data, err := json.MarshalIndent(t.inputSchema.Raw(), "", "  "); err == nil {
			args = string(data)
		}
	}
	return fmt.Sprintf("\n---\n\nTool Name: %s\nTool Description: %s\nTool Arguments: %s\n",
		t.name, t.description, args)
}

// stringifyResult renders a tool's return value for the model. Strings pass
// through; structured values are rendered as JSON.
func stringifyResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}

// Toolset is a named collection of tools with stable iteration order.
type Toolset struct {
	tools map[string]*Tool
}

// NewToolset creates a Toolset from the given tools. Later tools replace
// earlier ones with the same name.
func NewToolset(tools ...*Tool) *Toolset {
	ts := &Toolset{tools: make(map[string]*Tool, len(tools))}
	for _, tool := range tools {
		ts.tools[tool.Name()] = tool
	}
	return ts
}

// Get returns the named tool, or nil when unknown.
func (ts *Toolset) Get(name string) *Tool {
	if ts == nil {
		return nil
	}
	return ts.tools[name]
}

// Names returns the tool names in sorted order.
func (ts *Toolset) Names() []string {
	if ts == nil {
		return nil
	}
	names := make([]string, 0, len(ts.tools))
	for name := range ts.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the tools in name order.
func (ts *Toolset) All() []*Tool {
	names := ts.Names()
	tools := make([]*Tool, len(names))
	for i, name := range names {
		tools[i] = ts.tools[name]
	}
	return tools
}
