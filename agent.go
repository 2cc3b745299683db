package agentic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTurnsMarker is the Result value produced when the turn limit is hit
// before the model signals completion.
const MaxTurnsMarker = "[MAX_TURNS] Agent did not complete within turn limit"

// Agent runs the Reason-Act-Observe loop: the model reasons about the
// problem, calls tools, observes their results, and repeats until it
// declares the task finished or the turn limit is hit.
//
// Failure handling is split by category. Configuration and provider
// contract errors (AuthError, InvalidModelError, PermissionError,
// MalformedResponseError, TransientProviderError) abort the run and are
// returned from Run. Everything else (unparsable responses, content
// filters, empty responses, tool failures) is appended to the conversation
// so the model can see what went wrong and adjust; models routinely
// self-correct after seeing their mistakes.
//
// Agent is not safe for concurrent use; run one conversation per Agent.
type Agent struct {
	llm               *LLM
	tools             *Toolset
	bus               *observerBus
	maxTurns          int
	systemPrompt      string
	encourageContinue string
	checkpointPath    string
	logger            *slog.Logger

	runID      string
	messages   []Message
	turnCount  int
	tokensUsed int
}

// NewAgent creates an Agent with the default system prompt and a limit of
// 10 turns.
func NewAgent(llm *LLM, tools *Toolset) *Agent {
	return &Agent{
		llm:          llm,
		tools:        tools,
		bus:          newObserverBus(nil, nil),
		maxTurns:     10,
		systemPrompt: DefaultSystemPrompt,
		logger:       slog.Default(),
		runID:        uuid.NewString(),
	}
}

// WithObservers registers observers. Each observer implements whichever
// event interfaces it cares about. Returns the agent for chaining.
func (a *Agent) WithObservers(observers ...any) *Agent {
	a.bus = newObserverBus(observers, a.logger)
	return a
}

// WithMaxTurns sets the turn limit. Values below 1 are coerced to 1: a run
// always gets at least one model call. Returns the agent for chaining.
func (a *Agent) WithMaxTurns(n int) *Agent {
	if n < 1 {
		n = 1
	}
	a.maxTurns = n
	return a
}

// WithSystemPrompt replaces the default system prompt template. The
// template may use the {tools} and {response_format} placeholders.
// Returns the agent for chaining.
func (a *Agent) WithSystemPrompt(prompt string) *Agent {
	a.systemPrompt = prompt
	return a
}

// WithEncourageContinue wraps every tool result shown to the model with the
// given continuation nudge. Empty (the default) leaves tool output
// untouched. Returns the agent for chaining.
func (a *Agent) WithEncourageContinue(msg string) *Agent {
	a.encourageContinue = msg
	return a
}

// WithAutoCheckpoint saves a crash-recovery checkpoint to path before a
// fatal or transient provider error propagates out of the loop. Normal-path
// behavior is unchanged. Checkpoint write failures are logged, never fatal.
// Returns the agent for chaining.
func (a *Agent) WithAutoCheckpoint(path string) *Agent {
	a.checkpointPath = path
	return a
}

// WithLogger sets the logger used for observer failures and checkpoint
// diagnostics. Returns the agent for chaining.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	a.logger = logger
	a.bus.logger = logger
	return a
}

// RunID returns the unique identifier of this agent instance's run.
func (a *Agent) RunID() string {
	return a.runID
}

// Messages returns the conversation history. The returned slice must be
// treated as read-only.
func (a *Agent) Messages() []Message {
	return a.messages
}

// TurnCount returns the number of turns consumed so far.
func (a *Agent) TurnCount() int {
	return a.turnCount
}

// TokensUsed returns the cumulative token count across all model calls,
// including failed parses and semantic errors.
func (a *Agent) TokensUsed() int {
	return a.tokensUsed
}

// Run starts a fresh conversation and drives it to completion. Previous
// history, turn and token counters are discarded.
func (a *Agent) Run(ctx context.Context, input string) (*Result, error) {
	a.messages = []Message{{
		Role:      RoleSystem,
		Content:   RenderSystemPrompt(a.systemPrompt, a.tools),
		Timestamp: time.Now(),
	}}
	a.turnCount = 0
	a.tokensUsed = 0
	return a.Continue(ctx, input)
}

// Continue appends input to the existing conversation and resumes the loop.
// Use after Restore to pick up a checkpointed run, or for multi-turn chat.
func (a *Agent) Continue(ctx context.Context, input string) (*Result, error) {
	if len(a.messages) == 0 {
		return a.Run(ctx, input)
	}

	a.messages = append(a.messages, Message{
		Role:      RoleUser,
		Content:   input,
		Timestamp: time.Now(),
	})

	for a.turnCount < a.maxTurns {
		a.turnCount++
		a.bus.turnStart(a.turnCount, a.messages)

		response, err := a.llm.Call(ctx, a.messages)
		if err != nil {
			a.bus.error(a.turnCount, err.Error(), "")
			// Preserve state so the run can be resumed once the provider
			// problem is fixed.
			a.autoCheckpoint()
			return nil, err
		}

		a.tokensUsed += response.TokensIn + response.TokensOut

		// Semantic errors from the provider layer (content filter, empty
		// response) go into the conversation; the run keeps going.
		if response.ErrorCode != "" {
			content := response.Content
			if response.ErrorCode == ErrCodeEmptyResponse {
				content += "\n\nRespond with JSON containing reasoning, tool_calls, result, and is_finished."
			}
			a.messages = append(a.messages, Message{
				Role:      RoleAssistant,
				Content:   content,
				ErrorCode: response.ErrorCode,
				Timestamp: time.Now(),
			})
			a.bus.error(a.turnCount,
				fmt.Sprintf("Semantic error: %s", response.ErrorCode),
				rawContent(response))
			continue
		}

		parsed, parseErr := parseAgentResponse(response.Content)
		if parseErr != nil {
			// Invalid JSON or wrong shape is recoverable: tell the model and
			// let it try again.
			a.messages = append(a.messages, Message{
				Role: RoleAssistant,
				Content: fmt.Sprintf(
					"Invalid response format: %v\n\nPlease respond with valid JSON matching the required schema.",
					parseErr,
				),
				ErrorCode: ErrCodeParseError,
				Timestamp: time.Now(),
			})
			a.bus.error(a.turnCount,
				fmt.Sprintf("Semantic error: %s", ErrCodeParseError),
				rawContent(response))
			continue
		}

		assistantMsg := Message{
			Role:      RoleAssistant,
			Content:   response.Content,
			ToolCalls: parsed.ToolCalls,
			Timestamp: time.Now(),
			TokensIn:  response.TokensIn,
			TokensOut: response.TokensOut,
			Metadata:  response.Metadata,
		}
		a.messages = append(a.messages, assistantMsg)
		a.bus.llmResponse(a.turnCount, assistantMsg)

		if len(parsed.ToolCalls) > 0 {
			a.executeTools(ctx, parsed.ToolCalls)
		}

		if parsed.IsFinished {
			value := ""
			if parsed.Result != nil {
				value = *parsed.Result
			}
			finalResult := &Result{
				Value:    value,
				Status:   StatusSuccess,
				Metadata: a.runMetadata(),
			}
			finalMsg := Message{
				Role:      RoleAssistant,
				Content:   value,
				Timestamp: time.Now(),
				Metadata:  finalResult.Metadata,
			}
			a.bus.finish(finalMsg, a.messages)
			return finalResult, nil
		}
	}

	a.bus.error(a.turnCount, "Max turns reached", "")
	return &Result{
		Value:    MaxTurnsMarker,
		Status:   StatusMaxTurns,
		Metadata: a.runMetadata(),
	}, nil
}

// executeTools runs each requested call in order and appends one tool
// message per call. Every call gets a paired result message, even when the
// tool is unknown or fails.
func (a *Agent) executeTools(ctx context.Context, toolCalls []ToolCall) {
	for _, tc := range toolCalls {
		var msg Message

		tool := a.tools.Get(tc.Tool)
		if tool == nil {
			msg = Message{
				Role: RoleTool,
				Content: fmt.Sprintf("Tool '%s' not found. Available: [%s]",
					tc.Tool, strings.Join(a.tools.Names(), ", ")),
				Name:      tc.Tool,
				ErrorCode: ErrCodeExecutionError,
				Timestamp: time.Now(),
			}
		} else {
			msg = tool.Run(ctx, tc.Args)
		}

		msg.ToolCallID = tc.ID
		if a.encourageContinue != "" {
			msg.Content = a.formatToolResult(msg)
		}

		a.messages = append(a.messages, msg)
		a.bus.toolExecution(a.turnCount, msg.Name, msg)

		if msg.ErrorCode != "" {
			a.bus.error(a.turnCount, msg.Content, "")
		}
	}
}

// formatToolResult wraps tool output with the continuation nudge.
func (a *Agent) formatToolResult(msg Message) string {
	if msg.ErrorCode != "" {
		return fmt.Sprintf("Tool %s called with an execution error: %q\n%s",
			msg.Name, msg.Content, a.encourageContinue)
	}
	return fmt.Sprintf("Tool %s called, and the result is: %q\n%s",
		msg.Name, msg.Content, a.encourageContinue)
}

func (a *Agent) runMetadata() map[string]any {
	trajectory := make([]Message, len(a.messages))
	copy(trajectory, a.messages)
	return map[string]any{
		"run_id":     a.runID,
		"turns":      a.turnCount,
		"tokens":     a.tokensUsed,
		"trajectory": trajectory,
	}
}

func (a *Agent) autoCheckpoint() {
	if a.checkpointPath == "" {
		return
	}
	if err := a.SaveCheckpoint(a.checkpointPath); err != nil {
		a.logger.Warn("checkpoint save failed",
			"path", a.checkpointPath, "error", err)
	}
}

func rawContent(response Message) string {
	if raw, ok := response.Metadata["raw_content"].(string); ok {
		return raw
	}
	return response.Content
}

// parseAgentResponse parses canonical response JSON, enforcing the shape
// the system prompt demands: reasoning and is_finished must be present.
func parseAgentResponse(content string) (*AgentResponse, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &keys); err != nil {
		return nil, err
	}
	if _, ok := keys["reasoning"]; !ok {
		return nil, fmt.Errorf("missing required field 'reasoning'")
	}
	if _, ok := keys["is_finished"]; !ok {
		return nil, fmt.Errorf("missing required field 'is_finished'")
	}

	var parsed AgentResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}
