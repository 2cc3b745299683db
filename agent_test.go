package agentic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic/internal/tt"
)

// recorder captures every observer event in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

func (r *recorder) OnTurnStart(turn int, messages []Message)            { r.record("turn_start") }
func (r *recorder) OnLLMResponse(turn int, response Message)            { r.record("llm_response") }
func (r *recorder) OnToolExecution(turn int, name string, res Message)  { r.record("tool_execution") }
func (r *recorder) OnFinish(finalResult Message, allMessages []Message) { r.record("finish") }
func (r *recorder) OnError(turn int, errMsg, rawResponse string)        { r.record("error") }

type panickyObserver struct{}

func (panickyObserver) OnTurnStart(turn int, messages []Message) { panic("observer bug") }

func newTestAgent(model *tt.MockModel) *Agent {
	llm := NewLLM(model, "test-model").WithRetryDelay(time.Millisecond, 2*time.Millisecond)
	return NewAgent(llm, NewToolset(addTool()))
}

func TestAgentRun_FinishesImmediately(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.FinishedJSON("all done", "the answer is 4"), 10, 5)

	agent := newTestAgent(model)
	result, err := agent.Run(context.Background(), "what is 2+2?")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "the answer is 4", result.Value)
	assert.Equal(t, 1, agent.TurnCount())
	assert.Equal(t, 15, agent.TokensUsed())

	messages := agent.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, RoleUser, messages[1].Role)
	assert.Equal(t, RoleAssistant, messages[2].Role)

	assert.Equal(t, agent.RunID(), result.Metadata["run_id"])
	assert.Equal(t, 1, result.Metadata["turns"])
}

func TestAgentRun_ToolLoop(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("adding",
			tt.Call("call_1", "add", map[string]any{"x": 1, "y": 2})), 10, 5).
		AddResponse(tt.FinishedJSON("got it", "3"), 8, 4)

	agent := newTestAgent(model)
	result, err := agent.Run(context.Background(), "add 1 and 2")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "3", result.Value)
	assert.Equal(t, 2, agent.TurnCount())
	assert.Equal(t, 27, agent.TokensUsed())

	messages := agent.Messages()
	// system, user, assistant(call), tool(result), assistant(finish)
	require.Len(t, messages, 5)

	toolMsg := messages[3]
	assert.Equal(t, RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, "add", toolMsg.Name)
	assert.Equal(t, "3", toolMsg.Content)
	assert.Empty(t, toolMsg.ErrorCode)

	// The model saw the tool result before finishing.
	require.Equal(t, 2, model.CallCount())
	secondCall := model.CapturedMessages[1]
	assert.Len(t, secondCall, 4)
}

func TestAgentRun_UnknownToolRecovers(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("trying",
			tt.Call("call_1", "telepathy", map[string]any{})), 1, 1).
		AddResponse(tt.FinishedJSON("giving up", "cannot do that"), 1, 1)

	agent := newTestAgent(model)
	result, err := agent.Run(context.Background(), "read my mind")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)

	toolMsg := agent.Messages()[3]
	assert.Equal(t, ErrCodeExecutionError, toolMsg.ErrorCode)
	assert.Contains(t, toolMsg.Content, "Tool 'telepathy' not found")
	assert.Contains(t, toolMsg.Content, "add")
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
}

func TestAgentRun_ToolFailureRecovery(t *testing.T) {
	broken := NewTool("broken_add", "Add two numbers (flaky backend)", nil,
		func(ctx context.Context, args, deps map[string]any) (any, error) {
			return nil, errors.New("backend unavailable")
		})

	model := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("adding",
			tt.Call("call_1", "broken_add", map[string]any{"x": 1, "y": 2})), 1, 1).
		AddResponse(tt.ToolCallJSON("switching to the other adder",
			tt.Call("call_2", "add", map[string]any{"x": 1, "y": 2})), 1, 1).
		AddResponse(tt.FinishedJSON("done", "3"), 1, 1)

	llm := NewLLM(model, "test-model").WithRetryDelay(time.Millisecond, 2*time.Millisecond)
	agent := NewAgent(llm, NewToolset(broken, addTool()))

	result, err := agent.Run(context.Background(), "what is 1+2?")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "3", result.Value)

	failed := agent.Messages()[3]
	assert.Equal(t, ErrCodeExecutionError, failed.ErrorCode)
	assert.Contains(t, failed.Content, "backend unavailable")

	recovered := agent.Messages()[5]
	assert.Empty(t, recovered.ErrorCode)
	assert.Equal(t, "3", recovered.Content)
}

func TestAgentRun_ParseErrorRecovers(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse("I think the answer is four.", 1, 1).
		AddResponse(tt.FinishedJSON("ok, proper format now", "4"), 1, 1)

	agent := newTestAgent(model)
	result, err := agent.Run(context.Background(), "what is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, "4", result.Value)

	errorMsg := agent.Messages()[2]
	assert.Equal(t, ErrCodeParseError, errorMsg.ErrorCode)
	assert.Contains(t, errorMsg.Content, "Invalid response format")
	assert.Contains(t, errorMsg.Content, "valid JSON")
}

func TestAgentRun_MissingFieldsIsParseError(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(`{"tool_calls": null, "result": null, "is_finished": false}`, 1, 1).
		AddResponse(tt.FinishedJSON("fixed", "done"), 1, 1)

	agent := newTestAgent(model)
	_, err := agent.Run(context.Background(), "task")
	require.NoError(t, err)

	errorMsg := agent.Messages()[2]
	assert.Equal(t, ErrCodeParseError, errorMsg.ErrorCode)
	assert.Contains(t, errorMsg.Content, "reasoning")
}

func TestAgentRun_SemanticErrorContinues(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse("   ", 5, 0).
		AddResponse(tt.FinishedJSON("recovered", "done"), 5, 2)

	agent := newTestAgent(model)
	result, err := agent.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "done", result.Value)

	// Tokens from the failed round still count.
	assert.Equal(t, 12, agent.TokensUsed())
	assert.Equal(t, ErrCodeEmptyResponse, agent.Messages()[2].ErrorCode)
	assert.Contains(t, agent.Messages()[2].Content, "is_finished")
}

func TestAgentRun_MaxTurns(t *testing.T) {
	keepGoing := `{"reasoning": "still thinking", "tool_calls": null, "result": null, "is_finished": false}`
	model := tt.NewMockModel().
		AddResponse(keepGoing, 1, 1).
		AddResponse(keepGoing, 1, 1)

	agent := newTestAgent(model).WithMaxTurns(2)
	result, err := agent.Run(context.Background(), "task")
	require.NoError(t, err)

	assert.Equal(t, StatusMaxTurns, result.Status)
	assert.Equal(t, MaxTurnsMarker, result.Value)
	assert.Equal(t, 2, model.CallCount())
}

func TestAgentRun_FatalErrorAborts(t *testing.T) {
	model := tt.NewMockModel().
		AddError(errors.New("API returned unexpected status code: 401 bad key"))

	agent := newTestAgent(model)
	result, err := agent.Run(context.Background(), "task")

	require.Error(t, err)
	assert.Nil(t, result)
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestAgentContinue_MultiTurn(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.FinishedJSON("first", "alpha"), 1, 1).
		AddResponse(tt.FinishedJSON("second", "beta"), 1, 1)

	agent := newTestAgent(model).WithMaxTurns(10)

	first, err := agent.Run(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "alpha", first.Value)

	second, err := agent.Continue(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "beta", second.Value)

	// One shared history: system, user, assistant, user, assistant.
	assert.Len(t, agent.Messages(), 5)
	assert.Equal(t, 2, agent.TurnCount())
}

func TestAgentWithMaxTurns_Floor(t *testing.T) {
	model := tt.NewMockModel().AddResponse(tt.FinishedJSON("r", "v"), 1, 1)
	agent := newTestAgent(model).WithMaxTurns(0)

	result, err := agent.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
}

func TestAgentObservers_EventOrder(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("adding",
			tt.Call("call_1", "add", map[string]any{"x": 1, "y": 2})), 1, 1).
		AddResponse(tt.FinishedJSON("done", "3"), 1, 1)

	rec := &recorder{}
	agent := newTestAgent(model).WithObservers(rec)

	_, err := agent.Run(context.Background(), "add")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"turn_start", "llm_response", "tool_execution",
		"turn_start", "llm_response", "finish",
	}, rec.Events())
}

func TestAgentObservers_PanicIsolated(t *testing.T) {
	model := tt.NewMockModel().AddResponse(tt.FinishedJSON("r", "v"), 1, 1)

	rec := &recorder{}
	agent := newTestAgent(model).WithObservers(panickyObserver{}, rec)

	result, err := agent.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Contains(t, rec.Events(), "finish")
}

func TestAgentRun_EncourageContinue(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("adding",
			tt.Call("call_1", "add", map[string]any{"x": 1, "y": 2})), 1, 1).
		AddResponse(tt.FinishedJSON("done", "3"), 1, 1)

	agent := newTestAgent(model).
		WithEncourageContinue("Continue until the task is complete.")

	_, err := agent.Run(context.Background(), "add")
	require.NoError(t, err)

	toolMsg := agent.Messages()[3]
	assert.Contains(t, toolMsg.Content, `the result is: "3"`)
	assert.Contains(t, toolMsg.Content, "Continue until the task is complete.")
}

func TestAgentRun_ResetsStateBetweenRuns(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.FinishedJSON("first", "a"), 10, 10).
		AddResponse(tt.FinishedJSON("second", "b"), 1, 1)

	agent := newTestAgent(model)
	_, err := agent.Run(context.Background(), "one")
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, 1, agent.TurnCount())
	assert.Equal(t, 2, agent.TokensUsed())
	assert.Len(t, agent.Messages(), 3)
}

func TestParseAgentResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "valid",
			content: `{"reasoning": "r", "tool_calls": null, "result": null, "is_finished": false}`,
		},
		{
			name:    "finished with null result",
			content: `{"reasoning": "r", "tool_calls": null, "result": null, "is_finished": true}`,
		},
		{
			name:    "not json",
			content: "plain prose",
			wantErr: "invalid character",
		},
		{
			name:    "missing reasoning",
			content: `{"tool_calls": null, "result": null, "is_finished": false}`,
			wantErr: "reasoning",
		},
		{
			name:    "missing is_finished",
			content: `{"reasoning": "r", "tool_calls": null, "result": null}`,
			wantErr: "is_finished",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseAgentResponse(tc.content)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, parsed)
		})
	}
}
