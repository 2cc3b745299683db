// Package observers provides ready-made agent observers: a console tracer
// for development and a structured-log observer for services.
package observers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"agentic"
)

// ConsoleTracer prints the agent's execution flow for development: turns,
// reasoning, tool calls and results, and errors with raw model output.
type ConsoleTracer struct {
	w                io.Writer
	verbose          bool
	showSystemPrompt bool
	seenSystemPrompt bool
}

// NewConsoleTracer creates a tracer writing to stdout, verbose, showing the
// system prompt on the first turn.
func NewConsoleTracer() *ConsoleTracer {
	return &ConsoleTracer{
		w:                os.Stdout,
		verbose:          true,
		showSystemPrompt: true,
	}
}

// WithWriter redirects output. Returns the tracer for chaining.
func (t *ConsoleTracer) WithWriter(w io.Writer) *ConsoleTracer {
	t.w = w
	return t
}

// WithVerbose toggles full reasoning, tool args, and raw-response dumps.
// Returns the tracer for chaining.
func (t *ConsoleTracer) WithVerbose(verbose bool) *ConsoleTracer {
	t.verbose = verbose
	return t
}

// WithSystemPrompt toggles printing the system prompt on the first turn.
// Returns the tracer for chaining.
func (t *ConsoleTracer) WithSystemPrompt(show bool) *ConsoleTracer {
	t.showSystemPrompt = show
	return t
}

// OnTurnStart implements agentic.TurnStartObserver.
func (t *ConsoleTracer) OnTurnStart(turn int, messages []agentic.Message) {
	fmt.Fprintf(t.w, "\n🔄 Turn %d\n", turn)

	if turn != 1 || len(messages) == 0 {
		return
	}

	if t.showSystemPrompt && !t.seenSystemPrompt && messages[0].Role == agentic.RoleSystem {
		fmt.Fprintf(t.w, "\n📋 System Prompt:\n%s\n%s\n%s\n",
			strings.Repeat("-", 70), messages[0].Content, strings.Repeat("-", 70))
		t.seenSystemPrompt = true
	}

	if last := messages[len(messages)-1]; last.Role == agentic.RoleUser {
		fmt.Fprintf(t.w, "\n📥 User Input: %s\n", last.Content)
	}
}

// OnLLMResponse implements agentic.LLMResponseObserver.
func (t *ConsoleTracer) OnLLMResponse(turn int, response agentic.Message) {
	var parsed agentic.AgentResponse
	if err := json.Unmarshal([]byte(response.Content), &parsed); err != nil {
		fmt.Fprintf(t.w, "\n⚠️  Raw Response (non-JSON):\n   %s\n", truncate(response.Content, 200))
		return
	}

	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	if !t.verbose {
		reasoning = truncate(reasoning, 200)
	}
	fmt.Fprintf(t.w, "\n💭 Agent Reasoning:\n   %s\n", reasoning)

	if len(parsed.ToolCalls) > 0 {
		fmt.Fprintf(t.w, "\n🔧 Tool Calls (%d):\n", len(parsed.ToolCalls))
		for i, tc := range parsed.ToolCalls {
			args, _ := json.Marshal(tc.Args)
			fmt.Fprintf(t.w, "   %d. %s(%s)\n", i+1, tc.Tool, args)
		}
	}

	if parsed.IsFinished {
		fmt.Fprintf(t.w, "\n✅ Agent Finished\n")
		if parsed.Result != nil && *parsed.Result != "" {
			fmt.Fprintf(t.w, "📊 Result: %s\n", *parsed.Result)
		}
	}
}

// OnToolExecution implements agentic.ToolExecutionObserver.
func (t *ConsoleTracer) OnToolExecution(turn int, toolName string, result agentic.Message) {
	prefix := ""
	if result.ToolCallID != "" {
		prefix = fmt.Sprintf("[%s] ", result.ToolCallID)
	}

	if result.ErrorCode != "" {
		fmt.Fprintf(t.w, "\n❌ %s%s → ERROR: %s\n", prefix, toolName, result.Content)
		return
	}
	fmt.Fprintf(t.w, "\n📎 %s%s\n   %s\n", prefix, toolName, result.Content)
}

// OnFinish implements agentic.FinishObserver.
func (t *ConsoleTracer) OnFinish(finalResult agentic.Message, allMessages []agentic.Message) {
	fmt.Fprintf(t.w, "✅ Execution Complete\nResult: %s\n", finalResult.Content)
	if t.verbose && finalResult.Metadata != nil {
		fmt.Fprintf(t.w, "Stats: %v turns, %v tokens\n",
			finalResult.Metadata["turns"], finalResult.Metadata["tokens"])
	}
}

// OnError implements agentic.ErrorObserver.
func (t *ConsoleTracer) OnError(turn int, errMsg string, rawResponse string) {
	fmt.Fprintf(t.w, "\n❌ Error on turn %d: %s\n", turn, errMsg)

	// Raw output is the only way to debug parse errors, so those always
	// print it; other errors only in verbose mode.
	isParseError := strings.Contains(strings.ToLower(errMsg), "parse_error")
	if rawResponse == "" || (!t.verbose && !isParseError) {
		return
	}

	fmt.Fprintf(t.w, "\n📄 Raw Response:\n%s\n", strings.Repeat("-", 70))
	fmt.Fprintf(t.w, "Length: %d chars\n", len(rawResponse))
	fmt.Fprintf(t.w, "Content:\n%s\n", rawResponse)
	fmt.Fprintln(t.w, strings.Repeat("-", 70))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var (
	_ agentic.TurnStartObserver     = (*ConsoleTracer)(nil)
	_ agentic.LLMResponseObserver   = (*ConsoleTracer)(nil)
	_ agentic.ToolExecutionObserver = (*ConsoleTracer)(nil)
	_ agentic.FinishObserver        = (*ConsoleTracer)(nil)
	_ agentic.ErrorObserver         = (*ConsoleTracer)(nil)
)
