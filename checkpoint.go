package agentic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Checkpoint is the complete persisted state of a run: the conversation plus
// counters. Restoring it and calling Continue resumes the run mid-flight.
type Checkpoint struct {
	Messages   []Message `json:"messages"`
	TurnCount  int       `json:"turn_count"`
	TokensUsed int       `json:"tokens_used"`
}

// Checkpoint captures the agent's current state.
func (a *Agent) Checkpoint() Checkpoint {
	messages := make([]Message, len(a.messages))
	copy(messages, a.messages)
	return Checkpoint{
		Messages:   messages,
		TurnCount:  a.turnCount,
		TokensUsed: a.tokensUsed,
	}
}

// Restore replaces the agent's state with the checkpoint's. The next
// Continue call picks up where the checkpointed run left off, with the
// remaining turn budget.
func (a *Agent) Restore(cp Checkpoint) {
	a.messages = make([]Message, len(cp.Messages))
	copy(a.messages, cp.Messages)
	a.turnCount = cp.TurnCount
	a.tokensUsed = cp.TokensUsed
}

// SaveCheckpoint writes the agent's state as JSON to path. The write goes
// through a temp file and rename so a crash mid-write never leaves a
// truncated checkpoint behind.
func (a *Agent) SaveCheckpoint(path string) error {
	data, err := json.MarshalIndent(a.Checkpoint(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("creating checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint.
func LoadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("reading checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("parsing checkpoint: %w", err)
	}
	return cp, nil
}

// LoadCheckpointInto restores an agent directly from a checkpoint file.
func LoadCheckpointInto(a *Agent, path string) error {
	cp, err := LoadCheckpoint(path)
	if err != nil {
		return err
	}
	a.Restore(cp)
	return nil
}
