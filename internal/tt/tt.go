// Package tt provides test helpers: a scripted model mock and canned
// canonical response builders.
package tt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// MockModel is a scripted llms.Model. Each call pops the next queued
// response or error in order; calling past the script panics so a test
// that loops too long fails loudly.
type MockModel struct {
	steps     []step
	callCount int

	// CapturedMessages stores the messages passed to each GenerateContent
	// call, in call order.
	CapturedMessages [][]llms.MessageContent

	// CapturedOptions stores the resolved call options per call.
	CapturedOptions []llms.CallOptions
}

type step struct {
	response *llms.ContentResponse
	err      error
}

// NewMockModel creates an empty scripted model.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// AddResponse queues a plain content response with token usage.
func (m *MockModel) AddResponse(content string, tokensIn, tokensOut int) *MockModel {
	m.steps = append(m.steps, step{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content: content,
			GenerationInfo: map[string]any{
				"PromptTokens":     tokensIn,
				"CompletionTokens": tokensOut,
			},
		}},
	}})
	return m
}

// AddStopResponse queues a content response with an explicit stop reason.
func (m *MockModel) AddStopResponse(content, stopReason string) *MockModel {
	m.steps = append(m.steps, step{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:        content,
			StopReason:     stopReason,
			GenerationInfo: zeroUsage(),
		}},
	}})
	return m
}

// AddToolCallResponse queues a response carrying provider-native tool
// calls, with the matching "tool_calls" stop reason.
func (m *MockModel) AddToolCallResponse(reasoning string, calls ...llms.ToolCall) *MockModel {
	m.steps = append(m.steps, step{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:        reasoning,
			StopReason:     "tool_calls",
			ToolCalls:      calls,
			GenerationInfo: zeroUsage(),
		}},
	}})
	return m
}

// AddRawResponse queues a response exactly as given, useful for provider
// contract-violation cases the other builders cannot express.
func (m *MockModel) AddRawResponse(response *llms.ContentResponse) *MockModel {
	m.steps = append(m.steps, step{response: response})
	return m
}

func zeroUsage() map[string]any {
	return map[string]any{"PromptTokens": 0, "CompletionTokens": 0}
}

// AddEmptyResponse queues a response with no choices.
func (m *MockModel) AddEmptyResponse() *MockModel {
	m.steps = append(m.steps, step{response: &llms.ContentResponse{}})
	return m
}

// AddError queues an error return.
func (m *MockModel) AddError(err error) *MockModel {
	m.steps = append(m.steps, step{err: err})
	return m
}

// CallCount returns how many times GenerateContent has been invoked.
func (m *MockModel) CallCount() int {
	return m.callCount
}

// GenerateContent implements llms.Model.
func (m *MockModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	if m.callCount >= len(m.steps) {
		panic(fmt.Sprintf("MockModel: call %d exceeds script length %d",
			m.callCount+1, len(m.steps)))
	}

	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	m.CapturedMessages = append(m.CapturedMessages, messages)
	m.CapturedOptions = append(m.CapturedOptions, opts)

	s := m.steps[m.callCount]
	m.callCount++
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

// Call implements llms.Model.
func (m *MockModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return resp.Choices[0].Content, nil
}

// ToolCallJSON builds a canonical response with tool calls, encoded as the
// JSON string a model would emit.
func ToolCallJSON(reasoning string, calls ...map[string]any) string {
	body := map[string]any{
		"reasoning":   reasoning,
		"tool_calls":  calls,
		"result":      nil,
		"is_finished": false,
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Call builds one tool call entry for ToolCallJSON.
func Call(id, tool string, args map[string]any) map[string]any {
	return map[string]any{"id": id, "tool": tool, "args": args}
}

// FinishedJSON builds a canonical finished response.
func FinishedJSON(reasoning, result string) string {
	body := map[string]any{
		"reasoning":   reasoning,
		"tool_calls":  []any{},
		"result":      result,
		"is_finished": true,
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return string(data)
}
