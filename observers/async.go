package observers

import (
	"sync"

	"agentic"
	"agentic/internal/queue"
)

// Async wraps another observer and delivers its events on a background
// goroutine through an unbounded queue, so a slow observer (file writer,
// network sink) never stalls the agent loop. Event order is preserved.
//
// Call Close when the run is finished to drain pending events and stop the
// delivery goroutine.
type Async struct {
	inner   any
	events  *queue.Unbounded[func()]
	done    chan struct{}
	closeMu sync.Once
}

// NewAsync wraps inner, which may implement any subset of the observer
// interfaces.
func NewAsync(inner any) *Async {
	a := &Async{
		inner:  inner,
		events: queue.NewUnbounded[func()](),
		done:   make(chan struct{}),
	}
	go a.deliver()
	return a
}

func (a *Async) deliver() {
	defer close(a.done)
	for fn := range a.events.Receive() {
		fn()
	}
}

// Close drains queued events, waits for delivery to finish, and stops the
// background goroutine. Events observed after Close are dropped.
func (a *Async) Close() {
	a.closeMu.Do(func() {
		a.events.Close()
		<-a.done
	})
}

func (a *Async) OnTurnStart(turn int, messages []agentic.Message) {
	if obs, ok := a.inner.(agentic.TurnStartObserver); ok {
		a.events.Send(func() { obs.OnTurnStart(turn, messages) })
	}
}

func (a *Async) OnLLMResponse(turn int, response agentic.Message) {
	if obs, ok := a.inner.(agentic.LLMResponseObserver); ok {
		a.events.Send(func() { obs.OnLLMResponse(turn, response) })
	}
}

func (a *Async) OnToolExecution(turn int, toolName string, result agentic.Message) {
	if obs, ok := a.inner.(agentic.ToolExecutionObserver); ok {
		a.events.Send(func() { obs.OnToolExecution(turn, toolName, result) })
	}
}

func (a *Async) OnFinish(finalResult agentic.Message, allMessages []agentic.Message) {
	if obs, ok := a.inner.(agentic.FinishObserver); ok {
		a.events.Send(func() { obs.OnFinish(finalResult, allMessages) })
	}
}

func (a *Async) OnError(turn int, errMsg string, rawResponse string) {
	if obs, ok := a.inner.(agentic.ErrorObserver); ok {
		a.events.Send(func() { obs.OnError(turn, errMsg, rawResponse) })
	}
}

var (
	_ agentic.TurnStartObserver     = (*Async)(nil)
	_ agentic.LLMResponseObserver   = (*Async)(nil)
	_ agentic.ToolExecutionObserver = (*Async)(nil)
	_ agentic.FinishObserver        = (*Async)(nil)
	_ agentic.ErrorObserver         = (*Async)(nil)
)
