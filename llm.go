package agentic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"agentic/protocol"
)

// NativeToolCallReasoning is substituted when a model uses the provider's
// native tool-call mechanism and sends no accompanying text.
const NativeToolCallReasoning = "Using tools to gather information."

// Usage is the normalized token accounting for one provider call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLM wraps a LangChainGo llms.Model and returns consistent Message values
// regardless of which model or provider is behind it.
//
// Responsibilities:
//   - Message format conversion between the internal format and llms.MessageContent
//   - Response normalization via the protocol package (XML dialects, markdown
//     fences, preambles)
//   - Native tool_calls conversion to the canonical JSON-in-content shape
//   - Error classification: configuration errors surface as typed fatal
//     errors, transient provider failures are retried with backoff and then
//     wrapped in TransientProviderError, and semantic failures (content
//     filter, empty response) come back as Messages with an ErrorCode so the
//     loop can show them to the model
type LLM struct {
	model       llms.Model
	modelName   string
	temperature float64
	maxTokens   int
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewLLM creates an LLM wrapping the given llms.Model.
//
// Example:
//
//	client, _ := openai.New(
//	    openai.WithBaseURL("https://openrouter.ai/api/v1"),
//	    openai.WithToken(apiKey),
//	)
//	llm := agentic.NewLLM(client, "anthropic/claude-sonnet-4")
func NewLLM(model llms.Model, modelName string) *LLM {
	return &LLM{
		model:       model,
		modelName:   modelName,
		temperature: 0.0,
		maxTokens:   1000,
		maxRetries:  2,
		baseDelay:   500 * time.Millisecond,
		maxDelay:    8 * time.Second,
	}
}

// WithTemperature sets the sampling temperature. Returns the LLM for chaining.
func (l *LLM) WithTemperature(t float64) *LLM {
	l.temperature = t
	return l
}

// WithMaxTokens sets the completion token limit. Returns the LLM for chaining.
func (l *LLM) WithMaxTokens(n int) *LLM {
	l.maxTokens = n
	return l
}

// WithMaxRetries sets how many times a transient failure is retried before
// it is wrapped in TransientProviderError. Returns the LLM for chaining.
func (l *LLM) WithMaxRetries(n int) *LLM {
	l.maxRetries = n
	return l
}

// WithRetryDelay sets the backoff base and cap. Returns the LLM for chaining.
func (l *LLM) WithRetryDelay(base, max time.Duration) *LLM {
	l.baseDelay = base
	l.maxDelay = max
	return l
}

// ModelName returns the configured model identifier.
func (l *LLM) ModelName() string {
	return l.modelName
}

// Unwrap returns the underlying llms.Model.
func (l *LLM) Unwrap() llms.Model {
	return l.model
}

// Call sends the conversation to the provider and returns the assistant's
// reply as a Message whose Content should parse as canonical response JSON.
//
// Errors returned by Call are always fatal for the run: AuthError,
// InvalidModelError, PermissionError, MalformedResponseError, or
// TransientProviderError after retries are exhausted. Semantic failures
// never produce an error; they produce a Message with ErrorCode set.
func (l *LLM) Call(ctx context.Context, messages []Message) (Message, error) {
	apiMessages := toModelMessages(messages)

	opts := []llms.CallOption{
		llms.WithTemperature(l.temperature),
		llms.WithMaxTokens(l.maxTokens),
	}
	if l.modelName != "" {
		opts = append(opts, llms.WithModel(l.modelName))
	}

	response, err := l.generateWithRetry(ctx, apiMessages, opts)
	if err != nil {
		return Message{}, err
	}

	// Provider contract violations are fatal, not conversational.
	if response == nil || len(response.Choices) == 0 {
		return Message{}, &MalformedResponseError{
			Reason: "provider returned response with no choices",
		}
	}

	choice := response.Choices[0]
	if choice.GenerationInfo == nil {
		return Message{}, &MalformedResponseError{
			Reason: "provider returned choice without usage information",
		}
	}
	usage := extractUsage(choice.GenerationInfo)
	finishReason := choice.StopReason
	originalContent := choice.Content
	content := choice.Content

	// Some models use the provider's native tool_calls mechanism instead of
	// putting JSON in the content, signaled by the finish reason. Normalize
	// everything to JSON-in-content.
	if finishReason == "tool_calls" && len(choice.ToolCalls) > 0 {
		converted, convErr := convertNativeToolCalls(choice.ToolCalls, content)
		if convErr != nil {
			return Message{}, convErr
		}
		content = converted
	}

	meta := map[string]any{
		"raw_content":   originalContent,
		"finish_reason": finishReason,
		"model":         l.modelName,
		"usage":         usage,
	}

	if finishReason == "content_filter" {
		return Message{
			Role:      RoleAssistant,
			Content:   "Content was blocked by safety filters",
			ErrorCode: ErrCodeContentFilter,
			Timestamp: time.Now(),
			TokensIn:  usage.PromptTokens,
			TokensOut: usage.CompletionTokens,
			Metadata:  meta,
		}, nil
	}

	if strings.TrimSpace(content) == "" {
		return Message{
			Role: RoleAssistant,
			Content: fmt.Sprintf(
				"API call succeeded but returned empty content. "+
					"finish_reason=%s, content_length=%d, tokens_in=%d, tokens_out=%d",
				finishReason, len(content), usage.PromptTokens, usage.CompletionTokens,
			),
			ErrorCode: ErrCodeEmptyResponse,
			Timestamp: time.Now(),
			TokensIn:  usage.PromptTokens,
			TokensOut: usage.CompletionTokens,
			Metadata:  meta,
		}, nil
	}

	return Message{
		Role:      RoleAssistant,
		Content:   protocol.Normalize(content),
		Timestamp: time.Now(),
		TokensIn:  usage.PromptTokens,
		TokensOut: usage.CompletionTokens,
		Metadata:  meta,
	}, nil
}

// generateWithRetry calls the provider, retrying transient failures with
// exponential backoff and jitter. Configuration errors fail immediately.
func (l *LLM) generateWithRetry(
	ctx context.Context,
	messages []llms.MessageContent,
	opts []llms.CallOption,
) (*llms.ContentResponse, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt <= l.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoffWithJitter(l.baseDelay, attempt-1, l.maxDelay)):
			case <-ctx.Done():
				return nil, &TransientProviderError{
					AttemptCount: attempts,
					ErrorType:    "ContextCanceled",
					Err:          ctx.Err(),
				}
			}
		}

		response, err := l.model.GenerateContent(ctx, messages, opts...)
		attempts++
		if err == nil {
			return response, nil
		}
		lastErr = err

		if fatal := classifyFatal(err); fatal != nil {
			return nil, fatal
		}
		if !isTransient(err) {
			// Unknown error shape. Do not mask it behind retries.
			return nil, fmt.Errorf("calling provider: %w", err)
		}
	}

	return nil, &TransientProviderError{
		AttemptCount: attempts,
		ErrorType:    transientErrorType(lastErr),
		Err:          lastErr,
	}
}

// convertNativeToolCalls rewrites provider-native tool calls into the
// canonical JSON-in-content shape. Text accompanying the calls becomes the
// reasoning.
func convertNativeToolCalls(toolCalls []llms.ToolCall, content string) (string, error) {
	calls := make([]ToolCall, 0, len(toolCalls))
	for _, tc := range toolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		args := map[string]any{}
		if tc.FunctionCall.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
				return "", &MalformedResponseError{
					Reason: fmt.Sprintf(
						"tool call %q carries unparsable arguments: %v",
						tc.FunctionCall.Name, err,
					),
				}
			}
		}
		calls = append(calls, ToolCall{
			ID:   tc.ID,
			Tool: tc.FunctionCall.Name,
			Args: args,
		})
	}

	reasoning := strings.TrimSpace(content)
	if reasoning == "" {
		reasoning = NativeToolCallReasoning
	}

	data, err := json.Marshal(AgentResponse{
		Reasoning: reasoning,
		ToolCalls: calls,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling converted tool calls: %w", err)
	}
	return string(data), nil
}

// toModelMessages converts the internal history to LangChainGo's format.
// Assistant tool calls become llms.ToolCall parts; tool results become
// llms.ToolCallResponse parts.
func toModelMessages(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		mc := llms.MessageContent{Role: chatMessageType(msg.Role)}

		switch {
		case msg.Role == RoleAssistant && len(msg.ToolCalls) > 0:
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				args, _ := json.Marshal(tc.Args)
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Tool,
						Arguments: string(args),
					},
				})
			}

		case msg.Role == RoleTool:
			mc.Parts = append(mc.Parts, llms.ToolCallResponse{
				ToolCallID: msg.ToolCallID,
				Name:       msg.Name,
				Content:    msg.Content,
			})

		default:
			mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
		}

		out = append(out, mc)
	}
	return out
}

func chatMessageType(role Role) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	case RoleTool:
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}

// extractUsage normalizes token counts from a choice's GenerationInfo.
// Key names differ per provider.
func extractUsage(info map[string]any) Usage {
	if info == nil {
		return Usage{}
	}
	u := Usage{
		PromptTokens:     firstInt(info, "PromptTokens", "InputTokens", "input_tokens"),
		CompletionTokens: firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens"),
	}
	u.TotalTokens = firstInt(info, "TotalTokens", "total_tokens")
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func firstInt(m map[string]any, keys ...string) int {
	for _, key := range keys {
		switch n := m[key].(type) {
		case int:
			if n > 0 {
				return n
			}
		case int32:
			if n > 0 {
				return int(n)
			}
		case int64:
			if n > 0 {
				return int(n)
			}
		case float64:
			if n > 0 {
				return int(n)
			}
		}
	}
	return 0
}

// -----------------------------------------------------------------------------
// Error classification
// -----------------------------------------------------------------------------

// statusCodeRe matches the HTTP status code LangChainGo embeds in provider
// error strings, e.g. "API returned unexpected status code: 401 Incorrect
// API key provided".
var statusCodeRe = regexp.MustCompile(`\b([45]\d{2})\b`)

func statusCode(err error) int {
	m := statusCodeRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// classifyFatal maps provider errors that indicate configuration problems to
// their typed fatal error. These fail immediately so the operator fixes the
// setup rather than the loop burning retries on a bad API key.
func classifyFatal(err error) error {
	switch statusCode(err) {
	case 401:
		return &AuthError{Reason: err.Error()}
	case 400, 404:
		return &InvalidModelError{Reason: err.Error()}
	case 403:
		return &PermissionError{Reason: err.Error()}
	}
	return nil
}

// isTransient reports whether the error is worth retrying: rate limits,
// server errors, timeouts, and connection failures.
func isTransient(err error) bool {
	code := statusCode(err)
	if code == 429 || (code >= 500 && code < 600) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"eof",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// transientErrorType names the failure class for TransientProviderError.
func transientErrorType(err error) string {
	if err == nil {
		return "Unknown"
	}
	code := statusCode(err)
	switch {
	case code == 429:
		return "RateLimitError"
	case code >= 500 && code < 600:
		return "InternalServerError"
	case errors.Is(err, context.DeadlineExceeded):
		return "APITimeoutError"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "APITimeoutError"
		}
		return "APIConnectionError"
	}
}

// backoffWithJitter computes exponential backoff with +/-20% jitter, capped
// at maxDelay.
func backoffWithJitter(base time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	if d > maxDelay {
		d = maxDelay
	}
	jitter := float64(d) * 0.2 * (2*rand.Float64() - 1)
	d = time.Duration(float64(d) + jitter)
	if d < 0 {
		d = base
	}
	return d
}
