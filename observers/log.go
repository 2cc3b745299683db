package observers

import (
	"log/slog"

	"agentic"
)

// LogObserver emits agent events as structured logs. Suitable for services
// where the console tracer's free-form output is too noisy.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

// OnTurnStart implements agentic.TurnStartObserver.
func (o *LogObserver) OnTurnStart(turn int, messages []agentic.Message) {
	o.logger.Info("turn start", "turn", turn, "history_len", len(messages))
}

// OnLLMResponse implements agentic.LLMResponseObserver.
func (o *LogObserver) OnLLMResponse(turn int, response agentic.Message) {
	o.logger.Info("model response",
		"turn", turn,
		"tool_calls", len(response.ToolCalls),
		"tokens_in", response.TokensIn,
		"tokens_out", response.TokensOut,
	)
}

// OnToolExecution implements agentic.ToolExecutionObserver.
func (o *LogObserver) OnToolExecution(turn int, toolName string, result agentic.Message) {
	if result.ErrorCode != "" {
		o.logger.Warn("tool failed",
			"turn", turn,
			"tool", toolName,
			"call_id", result.ToolCallID,
			"error_code", result.ErrorCode,
		)
		return
	}
	o.logger.Info("tool executed",
		"turn", turn,
		"tool", toolName,
		"call_id", result.ToolCallID,
		"result_len", len(result.Content),
	)
}

// OnFinish implements agentic.FinishObserver.
func (o *LogObserver) OnFinish(finalResult agentic.Message, allMessages []agentic.Message) {
	o.logger.Info("run finished",
		"turns", finalResult.Metadata["turns"],
		"tokens", finalResult.Metadata["tokens"],
		"messages", len(allMessages),
	)
}

// OnError implements agentic.ErrorObserver.
func (o *LogObserver) OnError(turn int, errMsg string, rawResponse string) {
	o.logger.Error("agent error", "turn", turn, "error", errMsg)
}

var (
	_ agentic.TurnStartObserver     = (*LogObserver)(nil)
	_ agentic.LLMResponseObserver   = (*LogObserver)(nil)
	_ agentic.ToolExecutionObserver = (*LogObserver)(nil)
	_ agentic.FinishObserver        = (*LogObserver)(nil)
	_ agentic.ErrorObserver         = (*LogObserver)(nil)
)
