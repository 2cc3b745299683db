package agentic

import (
	"fmt"
	"log/slog"
)

// Observer events are optional interfaces: an observer implements only the
// hooks it cares about, and the agent dispatches with interface checks.
// Observer panics are recovered, logged, and dropped; they never stop agent
// execution.

// TurnStartObserver is notified at the start of each agent turn.
type TurnStartObserver interface {
	OnTurnStart(turn int, messages []Message)
}

// LLMResponseObserver is notified after each successfully parsed model
// response is appended to the conversation.
type LLMResponseObserver interface {
	OnLLMResponse(turn int, response Message)
}

// ToolExecutionObserver is notified after each tool invocation.
type ToolExecutionObserver interface {
	OnToolExecution(turn int, toolName string, result Message)
}

// FinishObserver is notified when the agent completes with a final answer.
type FinishObserver interface {
	OnFinish(finalResult Message, allMessages []Message)
}

// ErrorObserver is notified on fatal errors, semantic errors, tool failures,
// and turn-limit exhaustion. rawResponse carries the unnormalized model
// output when one is relevant, otherwise empty.
type ErrorObserver interface {
	OnError(turn int, errMsg string, rawResponse string)
}

// observerBus fans out events to registered observers, isolating the agent
// loop from observer panics.
type observerBus struct {
	observers []any
	logger    *slog.Logger
}

func newObserverBus(observers []any, logger *slog.Logger) *observerBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &observerBus{observers: observers, logger: logger}
}

func (b *observerBus) dispatch(event string, observerName string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("observer panicked",
				"observer", observerName,
				"event", event,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	fn()
}

func observerName(o any) string {
	return fmt.Sprintf("%T", o)
}

func (b *observerBus) turnStart(turn int, messages []Message) {
	for _, o := range b.observers {
		if obs, ok := o.(TurnStartObserver); ok {
			b.dispatch("on_turn_start", observerName(o), func() {
				obs.OnTurnStart(turn, messages)
			})
		}
	}
}

func (b *observerBus) llmResponse(turn int, response Message) {
	for _, o := range b.observers {
		if obs, ok := o.(LLMResponseObserver); ok {
			b.dispatch("on_llm_response", observerName(o), func() {
				obs.OnLLMResponse(turn, response)
			})
		}
	}
}

func (b *observerBus) toolExecution(turn int, toolName string, result Message) {
	for _, o := range b.observers {
		if obs, ok := o.(ToolExecutionObserver); ok {
			b.dispatch("on_tool_execution", observerName(o), func() {
				obs.OnToolExecution(turn, toolName, result)
			})
		}
	}
}

func (b *observerBus) finish(finalResult Message, allMessages []Message) {
	for _, o := range b.observers {
		if obs, ok := o.(FinishObserver); ok {
			b.dispatch("on_finish", observerName(o), func() {
				obs.OnFinish(finalResult, allMessages)
			})
		}
	}
}

func (b *observerBus) error(turn int, errMsg string, rawResponse string) {
	for _, o := range b.observers {
		if obs, ok := o.(ErrorObserver); ok {
			b.dispatch("on_error", observerName(o), func() {
				obs.OnError(turn, errMsg, rawResponse)
			})
		}
	}
}
