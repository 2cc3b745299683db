package agentic

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ErrorCode tags a Message as representing a recoverable failure. Messages
// carrying an error code stay in the conversation so the model can see what
// went wrong and adjust; they are never surfaced to the caller as exceptions.
type ErrorCode string

const (
	ErrCodeAPIError        ErrorCode = "api_error"
	ErrCodeValidationError ErrorCode = "validation_error"
	ErrCodeExecutionError  ErrorCode = "execution_error"
	ErrCodeTimeout         ErrorCode = "timeout"
	ErrCodeMaxTurns        ErrorCode = "max_turns_reached"
	ErrCodeParseError      ErrorCode = "parse_error"
	ErrCodeContentFilter   ErrorCode = "content_filter"
	ErrCodeEmptyResponse   ErrorCode = "empty_response"
)

// ToolCall identifies one requested tool invocation. IDs are chosen by the
// model (or synthesized during protocol conversion) and pair the call with
// its eventual tool-result message. An ID must not be reused, even across
// turns.
type ToolCall struct {
	// ID is the unique identifier for this tool call (e.g. "call_1").
	ID string `json:"id"`

	// Tool is the name of the tool to call.
	Tool string `json:"tool"`

	// Args maps argument names to loosely-typed values (numbers, strings,
	// booleans) as parsed from the model's JSON.
	Args map[string]any `json:"args"`
}

// Message is one turn in a conversation. Messages are appended to an
// ever-growing ordered sequence owned exclusively by the Agent and are never
// mutated after append. The sequence (plus counters) is the sole persisted
// state; see Agent.SaveCheckpoint.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// ErrorCode is set when this message represents a recoverable failure
	// (semantic errors from the model, tool validation/execution errors).
	ErrorCode ErrorCode `json:"error_code,omitempty"`

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall     `json:"tool_calls,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// ToolCallID and Name are set on tool-result messages and identify which
	// assistant ToolCall this message answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`

	TokensIn  int `json:"tokens_in,omitempty"`
	TokensOut int `json:"tokens_out,omitempty"`
}

// String returns a compact human-readable form used by tracers and logs.
func (m *Message) String() string {
	role := string(m.Role)
	if role == "" {
		role = "unknown"
	}

	var sb strings.Builder
	sb.WriteString(strings.ToUpper(role[:1]))
	sb.WriteString(role[1:])

	if m.ErrorCode != "" {
		fmt.Fprintf(&sb, " [ERROR: %s]", m.ErrorCode)
	}
	if m.Role == RoleAssistant && len(m.ToolCalls) > 0 {
		ids := make([]string, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			ids[i] = tc.ID
		}
		fmt.Fprintf(&sb, " [calls: %s]", strings.Join(ids, ", "))
	}
	if m.Role == RoleTool {
		name := m.Name
		if name == "" {
			name = "unknown"
		}
		id := m.ToolCallID
		if id == "" {
			id = "?"
		}
		fmt.Fprintf(&sb, " [%s#%s]", name, id)
	}

	content := m.Content
	if len(content) > 100 {
		content = content[:97] + "..."
	}
	sb.WriteString(": ")
	sb.WriteString(content)
	return sb.String()
}

// ResultStatus is the terminal status of a logical operation.
type ResultStatus string

const (
	StatusSuccess  ResultStatus = "success"
	StatusError    ResultStatus = "error"
	StatusMaxTurns ResultStatus = "max_turns_reached"
)

// Result is the outcome of a logical operation: a full agent run, or a
// single LLM round inside it.
type Result struct {
	// Value is the final answer or an intermediate return. Empty when the
	// operation did not produce a value.
	Value string `json:"value"`

	Status ResultStatus `json:"status"`

	// Err describes the failure when Status is StatusError.
	Err string `json:"error,omitempty"`

	// Metadata carries turn/token counts, the raw trajectory, or
	// semantic-error diagnostics.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AgentResponse is the canonical structured reply the model must produce
// every turn. All provider dialects are normalized into this shape before
// parsing; see the protocol package.
type AgentResponse struct {
	// Reasoning is the model's thought process for this turn.
	Reasoning string `json:"reasoning" jsonschema:"description=Use this field to reason about the problem and the solution."`

	// ToolCalls requests tool invocations. Null when no tools are needed.
	ToolCalls []ToolCall `json:"tool_calls" jsonschema:"description=Use this field to call tools. Leave null if no tool is needed."`

	// Result is the final answer. Must be set when IsFinished is true.
	Result *string `json:"result" jsonschema:"description=Use this field to return the final answer when is_finished is true."`

	// IsFinished signals task completion. When true the agent loop treats
	// Result as the final answer (empty string fallback when null).
	IsFinished bool `json:"is_finished" jsonschema:"description=Set to true only when the task is complete and result is set."`
}
