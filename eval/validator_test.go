package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic"
)

func listCall(id, path string) agentic.ToolCall {
	return agentic.ToolCall{
		ID:   id,
		Tool: listDirToolName,
		Args: map[string]any{"path": path},
	}
}

func calcCall(id string, x, y float64) agentic.ToolCall {
	return agentic.ToolCall{
		ID:   id,
		Tool: calculatorToolName,
		Args: map[string]any{"operation": "add", "x": x, "y": y},
	}
}

func toolResult(id, content string) agentic.Message {
	return agentic.Message{
		Role:       agentic.RoleTool,
		Content:    content,
		ToolCallID: id,
		Timestamp:  time.Now(),
	}
}

func TestTraceValidator_UnknownTool(t *testing.T) {
	v := NewTraceValidator("framework")

	ok := v.ValidateToolCall(agentic.ToolCall{ID: "call_1", Tool: "read_minds"}, 1)
	assert.False(t, ok)

	summary := v.Summary()
	assert.False(t, summary.Passed)
	require.Len(t, summary.Violations, 1)
	assert.Equal(t, "unknown_tool", summary.Violations[0].Type)
	assert.Equal(t, "read_minds", summary.Violations[0].Tool)
}

func TestTraceValidator_RequiredAndExtraListings(t *testing.T) {
	v := NewTraceValidator("framework")

	assert.True(t, v.ValidateToolCall(listCall("call_1", "framework"), 1))
	assert.Empty(t, v.Summary().Warnings)

	// Listing something never revealed is a warning, not a violation.
	assert.True(t, v.ValidateToolCall(listCall("call_2", "somewhere/else"), 2))
	warnings := v.Summary().Warnings
	require.Len(t, warnings, 1)
	assert.Equal(t, "extra_exploration", warnings[0].Type)
	assert.Equal(t, "somewhere/else", warnings[0].Path)
}

func TestTraceValidator_ListingGrowsState(t *testing.T) {
	v := NewTraceValidator("framework")
	v.ValidateToolCall(listCall("call_1", "framework"), 1)

	v.ProcessToolResult(listCall("call_1", "framework"), toolResult("call_1",
		"Contents of 'framework':\n"+
			" agents.py (file, 18,104 bytes)\n"+
			" test_setup.py (file, 2,500 bytes)\n"+
			" tests/ (directory, 8 items)\n"+
			" __pycache__/ (directory, 2 items)"))

	// tests/ became required, __pycache__ did not.
	assert.True(t, v.ValidateToolCall(listCall("call_2", "framework/tests"), 2))
	assert.Empty(t, v.Summary().Warnings)

	// Both file sizes are now known values; only the test file counts toward
	// completeness.
	assert.True(t, v.validValues[18104])
	assert.True(t, v.validValues[2500])
	assert.True(t, v.testFileSizesSeen[2500])
	assert.False(t, v.testFileSizesSeen[18104])

	v.ValidateToolCall(listCall("call_3", "framework/__pycache__"), 3)
	require.Len(t, v.Summary().Warnings, 1)
}

func TestTraceValidator_CalculatorGrounding(t *testing.T) {
	v := NewTraceValidator("framework")
	v.processListDirResult("framework", " a.py (file, 100 bytes)\n test_b.py (file, 200 bytes)")

	assert.True(t, v.ValidateToolCall(calcCall("call_1", 100, 200), 1))

	// 300 is unknown until the calculator result is processed.
	assert.False(t, v.ValidateToolCall(calcCall("call_2", 300, 100), 2))
	violations := v.Summary().Violations
	require.Len(t, violations, 1)
	assert.Equal(t, "invalid_calculator_arg", violations[0].Type)
	assert.Equal(t, 300, violations[0].Value)
	assert.Equal(t, []int{100, 200}, violations[0].ValidSample)

	v.processCalculatorResult("300")
	assert.True(t, v.ValidateToolCall(calcCall("call_3", 300, 100), 3))
}

func TestTraceValidator_CheckFinalAnswer(t *testing.T) {
	tests := []struct {
		name       string
		known      []string
		result     *agentic.Result
		expected   int
		wantPassed bool
		wantIssue  string
	}{
		{
			name:       "correct and grounded",
			known:      []string{"300"},
			result:     &agentic.Result{Value: "The total is 300 bytes."},
			expected:   300,
			wantPassed: true,
		},
		{
			name:       "comma formatted",
			known:      []string{"71831"},
			result:     &agentic.Result{Value: "Total: 71,831 bytes"},
			expected:   71831,
			wantPassed: true,
		},
		{
			name:      "wrong answer",
			known:     []string{"300"},
			result:    &agentic.Result{Value: "The total is 300."},
			expected:  400,
			wantIssue: "wrong answer",
		},
		{
			name:      "mental calculation",
			known:     nil,
			result:    &agentic.Result{Value: "It is 300."},
			expected:  300,
			wantIssue: "not in tool results",
		},
		{
			name:      "no answer",
			known:     nil,
			result:    nil,
			expected:  300,
			wantIssue: "wrong answer",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewTraceValidator("framework")
			for _, r := range tc.known {
				v.processCalculatorResult(r)
			}

			check := v.CheckFinalAnswer(tc.result, tc.expected)
			assert.Equal(t, tc.wantPassed, check.Passed)
			if tc.wantIssue != "" {
				require.NotEmpty(t, check.Issues)
				assert.Contains(t, check.Issues[0], tc.wantIssue)
			}
		})
	}
}

func TestTraceValidator_CheckCompleteness(t *testing.T) {
	v := NewTraceValidator("framework")
	v.ValidateToolCall(listCall("call_1", "framework"), 1)
	v.ProcessToolResult(listCall("call_1", "framework"), toolResult("call_1",
		"Contents of 'framework':\n"+
			" test_a.py (file, 100 bytes)\n"+
			" tests/ (directory, 1 items)"))

	// tests/ was revealed but never listed.
	check := v.CheckCompleteness(map[int]bool{100: true, 200: true})
	assert.False(t, check.Passed)
	assert.Equal(t, []string{"framework/tests"}, check.MissingCalls)
	assert.Equal(t, []int{200}, check.MissingSizes)
	assert.Empty(t, check.ExtraSizes)

	// Listing it and seeing the remaining file completes the run.
	v.ValidateToolCall(listCall("call_2", "framework/tests"), 2)
	v.ProcessToolResult(listCall("call_2", "framework/tests"), toolResult("call_2",
		"Contents of 'framework/tests':\n test_b.py (file, 200 bytes)"))

	check = v.CheckCompleteness(map[int]bool{100: true, 200: true})
	assert.True(t, check.Passed)
}

func TestValidateTrace_SiblingCallsCannotGroundEachOther(t *testing.T) {
	// One assistant turn holds both the pair-sum and a call consuming its
	// result. The result only becomes known after the turn, so the second
	// call is a violation.
	sibling := agentic.Message{
		Role: agentic.RoleAssistant,
		ToolCalls: []agentic.ToolCall{
			calcCall("call_2", 100, 200),
			calcCall("call_3", 300, 100),
		},
	}

	messages := []agentic.Message{
		{Role: agentic.RoleAssistant, ToolCalls: []agentic.ToolCall{listCall("call_1", "framework")}},
		toolResult("call_1", "Contents of 'framework':\n test_a.py (file, 100 bytes)\n test_b.py (file, 200 bytes)"),
		sibling,
		toolResult("call_2", "300"),
		toolResult("call_3", "400"),
	}

	gt := GroundTruth{
		TestFileSizes:  map[int]bool{100: true, 200: true},
		RequiredPaths:  []string{"framework"},
		ExpectedAnswer: 300,
	}
	report := ValidateTrace(messages, gt, "framework", &agentic.Result{Value: "300"})

	assert.False(t, report.Passed)
	require.Len(t, report.Trace.Violations, 1)
	assert.Equal(t, "invalid_calculator_arg", report.Trace.Violations[0].Type)
	assert.Equal(t, 300, report.Trace.Violations[0].Value)
}

func TestValidateTrace_SequentialCallsAreGrounded(t *testing.T) {
	messages := []agentic.Message{
		{Role: agentic.RoleAssistant, ToolCalls: []agentic.ToolCall{listCall("call_1", "framework")}},
		toolResult("call_1", "Contents of 'framework':\n test_a.py (file, 100 bytes)\n test_b.py (file, 200 bytes)"),
		{Role: agentic.RoleAssistant, ToolCalls: []agentic.ToolCall{calcCall("call_2", 100, 200)}},
		toolResult("call_2", "300"),
	}

	gt := GroundTruth{
		TestFileSizes:  map[int]bool{100: true, 200: true},
		RequiredPaths:  []string{"framework"},
		ExpectedAnswer: 300,
	}
	report := ValidateTrace(messages, gt, "framework", &agentic.Result{Value: "The sum is 300."})

	assert.True(t, report.Passed, "report: %+v", report)
	assert.Equal(t, 2, report.Trace.Metrics.TotalToolCalls)
	assert.Equal(t, 1, report.Trace.Metrics.ListDirCalls)
	assert.Equal(t, 1, report.Trace.Metrics.CalculatorCalls)
}

func TestValidateTrace_AnswerFallsBackToFinishedTurn(t *testing.T) {
	// No structured result; the answer comes from the last finished
	// assistant turn instead.
	messages := []agentic.Message{
		{Role: agentic.RoleAssistant, ToolCalls: []agentic.ToolCall{listCall("call_1", "framework")}},
		toolResult("call_1", "Contents of 'framework':\n test_a.py (file, 100 bytes)\n test_b.py (file, 200 bytes)"),
		{Role: agentic.RoleAssistant, ToolCalls: []agentic.ToolCall{calcCall("call_2", 100, 200)}},
		toolResult("call_2", "300"),
		{
			Role:    agentic.RoleAssistant,
			Content: `{"reasoning":"Done.","tool_calls":null,"result":"The total is 300 bytes.","is_finished":true}`,
		},
	}

	gt := GroundTruth{
		TestFileSizes:  map[int]bool{100: true, 200: true},
		RequiredPaths:  []string{"framework"},
		ExpectedAnswer: 300,
	}
	report := ValidateTrace(messages, gt, "framework", nil)

	assert.True(t, report.Passed, "report: %+v", report)
	require.NotNil(t, report.Answer.FinalAnswer)
	assert.Equal(t, 300, *report.Answer.FinalAnswer)
}
