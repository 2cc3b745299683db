package agentic

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic/internal/tt"
)

func TestCheckpoint_RoundTrip(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("adding",
			tt.Call("call_1", "add", map[string]any{"x": 1, "y": 2})), 10, 5).
		AddResponse(tt.FinishedJSON("done", "3"), 8, 4)

	agent := newTestAgent(model)
	_, err := agent.Run(context.Background(), "add 1 and 2")
	require.NoError(t, err)

	cp := agent.Checkpoint()
	assert.Equal(t, agent.TurnCount(), cp.TurnCount)
	assert.Equal(t, agent.TokensUsed(), cp.TokensUsed)
	assert.Len(t, cp.Messages, len(agent.Messages()))

	// The checkpoint owns its copy of the history.
	cp.Messages[0].Content = "mutated"
	assert.NotEqual(t, "mutated", agent.Messages()[0].Content)
}

func TestCheckpoint_SaveAndLoad(t *testing.T) {
	model := tt.NewMockModel().AddResponse(tt.FinishedJSON("done", "x"), 3, 2)

	agent := newTestAgent(model)
	_, err := agent.Run(context.Background(), "task")
	require.NoError(t, err)

	// Parent directories are created on save.
	path := filepath.Join(t.TempDir(), "runs", "today", "run.checkpoint")
	require.NoError(t, agent.SaveCheckpoint(path))

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cp.TurnCount)
	assert.Equal(t, 5, cp.TokensUsed)
	require.Len(t, cp.Messages, 3)
	assert.Equal(t, RoleSystem, cp.Messages[0].Role)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCheckpoint_ResumeContinuesRun(t *testing.T) {
	firstModel := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("adding",
			tt.Call("call_1", "add", map[string]any{"x": 1, "y": 2})), 1, 1)

	// Simulate a crash: the first agent stops after one turn.
	first := newTestAgent(firstModel).WithMaxTurns(1)
	result, err := first.Run(context.Background(), "add 1 and 2")
	require.NoError(t, err)
	assert.Equal(t, StatusMaxTurns, result.Status)

	path := filepath.Join(t.TempDir(), "crash.checkpoint")
	require.NoError(t, first.SaveCheckpoint(path))

	// A fresh process restores the checkpoint and finishes the task.
	secondModel := tt.NewMockModel().AddResponse(tt.FinishedJSON("resumed", "3"), 1, 1)
	second := newTestAgent(secondModel).WithMaxTurns(5)
	require.NoError(t, LoadCheckpointInto(second, path))

	assert.Equal(t, 1, second.TurnCount())

	resumed, err := second.Continue(context.Background(), "please finish")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, resumed.Status)
	assert.Equal(t, "3", resumed.Value)

	// History carries both the original tool exchange and the resumption.
	history := second.Messages()
	assert.Equal(t, "call_1", history[3].ToolCallID)
}

func TestCheckpoint_AutoCheckpointOnFatalError(t *testing.T) {
	// One good tool turn, then the provider rejects the key. The state
	// accumulated before the failure must be on disk after Run errors.
	model := tt.NewMockModel().
		AddResponse(tt.ToolCallJSON("adding",
			tt.Call("call_1", "add", map[string]any{"x": 1, "y": 2})), 1, 1).
		AddError(errors.New("API returned unexpected status code: 401 invalid key"))

	path := filepath.Join(t.TempDir(), "auto.checkpoint")
	agent := newTestAgent(model).WithAutoCheckpoint(path)

	_, err := agent.Run(context.Background(), "add")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cp.TurnCount)
	assert.Equal(t, 2, cp.TokensUsed)
	require.Len(t, cp.Messages, 4)
	assert.Equal(t, "call_1", cp.Messages[3].ToolCallID)
}

func TestCheckpoint_AutoCheckpointOnTransientExhaustion(t *testing.T) {
	model := tt.NewMockModel().
		AddError(errors.New("API returned unexpected status code: 429 rate limited")).
		AddError(errors.New("API returned unexpected status code: 429 rate limited")).
		AddError(errors.New("API returned unexpected status code: 429 rate limited"))

	path := filepath.Join(t.TempDir(), "auto.checkpoint")
	agent := newTestAgent(model).WithAutoCheckpoint(path)

	_, err := agent.Run(context.Background(), "add")
	var transient *TransientProviderError
	require.ErrorAs(t, err, &transient)

	cp, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cp.TurnCount)
	require.Len(t, cp.Messages, 2)
	assert.Equal(t, RoleUser, cp.Messages[1].Role)
}

func TestCheckpoint_NoAutoCheckpointOnSuccess(t *testing.T) {
	model := tt.NewMockModel().
		AddResponse(tt.FinishedJSON("done", "3"), 1, 1)

	path := filepath.Join(t.TempDir(), "auto.checkpoint")
	agent := newTestAgent(model).WithAutoCheckpoint(path)

	_, err := agent.Run(context.Background(), "add")
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no checkpoint expected on a clean run")
}

func TestLoadCheckpoint_Errors(t *testing.T) {
	_, err := LoadCheckpoint(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.checkpoint")
	require.NoError(t, os.WriteFile(bad, []byte("{truncated"), 0o644))
	_, err = LoadCheckpoint(bad)
	assert.ErrorContains(t, err, "parsing checkpoint")
}
