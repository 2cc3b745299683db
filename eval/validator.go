// Package eval provides deterministic evaluation for file-navigation agent
// runs: a mock filesystem tool, mechanical ground-truth extraction, a
// chronological trace validator, and forensic per-trace checks.
package eval

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"agentic"
)

// Tool names the validators recognize in traces.
const (
	listDirToolName    = "list_directory"
	calculatorToolName = "calculator"
)

// Violation is a hard trace failure: a hallucinated value or an unknown
// tool.
type Violation struct {
	Type    string `json:"type"`
	Tool    string `json:"tool,omitempty"`
	Arg     string `json:"arg,omitempty"`
	Value   int    `json:"value,omitempty"`
	Turn    int    `json:"turn"`
	Message string `json:"message,omitempty"`

	// ValidSample holds a snapshot of known values at validation time, for
	// debugging grounding failures.
	ValidSample []int `json:"valid_sample,omitempty"`
}

// Warning is a soft finding, e.g. exploration that was not required.
type Warning struct {
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Turn    int    `json:"turn"`
	Message string `json:"message,omitempty"`
}

// TraceValidator validates tool calls chronologically against evolving
// state: each call is checked against what the agent could legitimately
// know at that point, and each result grows the known-value and
// required-call sets.
//
// Grounding is batched by turn: all calls in one assistant message are
// validated before any of that turn's results are folded into state, so
// sibling calls cannot ground each other.
type TraceValidator struct {
	// requiredCalls holds directory paths that still must be listed. Seeded
	// with the initial path, grown by each subdirectory a listing reveals
	// (skipping __pycache__).
	requiredCalls []string

	// validValues holds every number the agent has legitimately seen: file
	// sizes from listings plus calculator results.
	validValues map[int]bool

	// testFileSizesSeen tracks sizes of test_*.py files encountered.
	testFileSizesSeen map[int]bool

	violations []Violation
	warnings   []Warning

	toolCallCount   int
	calculatorCalls int
	listDirCalls    int
}

// NewTraceValidator creates a validator expecting exploration to start at
// initialPath.
func NewTraceValidator(initialPath string) *TraceValidator {
	return &TraceValidator{
		requiredCalls:     []string{initialPath},
		validValues:       map[int]bool{},
		testFileSizesSeen: map[int]bool{},
	}
}

// ValidateToolCall checks one call against current state. Returns false
// when a violation was recorded.
func (v *TraceValidator) ValidateToolCall(tc agentic.ToolCall, turn int) bool {
	v.toolCallCount++

	switch tc.Tool {
	case listDirToolName:
		return v.validateListDirCall(tc, turn)
	case calculatorToolName:
		return v.validateCalculatorCall(tc, turn)
	default:
		v.violations = append(v.violations, Violation{
			Type: "unknown_tool",
			Tool: tc.Tool,
			Turn: turn,
		})
		return false
	}
}

func (v *TraceValidator) validateListDirCall(tc agentic.ToolCall, turn int) bool {
	v.listDirCalls++
	path, _ := tc.Args["path"].(string)

	for i, required := range v.requiredCalls {
		if required == path {
			// Checked off.
			v.requiredCalls = append(v.requiredCalls[:i], v.requiredCalls[i+1:]...)
			return true
		}
	}

	// Not required, but exploring extra directories is harmless.
	v.warnings = append(v.warnings, Warning{
		Type:    "extra_exploration",
		Path:    path,
		Turn:    turn,
		Message: fmt.Sprintf("Listed '%s' but not required for task", path),
	})
	return true
}

func (v *TraceValidator) validateCalculatorCall(tc agentic.ToolCall, turn int) bool {
	v.calculatorCalls++

	for _, argName := range []string{"x", "y"} {
		value, ok := numericArg(tc.Args, argName)
		if !ok {
			continue
		}
		if !v.validValues[value] {
			// Mental math or a hallucinated size.
			v.violations = append(v.violations, Violation{
				Type:  "invalid_calculator_arg",
				Arg:   argName,
				Value: value,
				Turn:  turn,
				Message: fmt.Sprintf(
					"Calculator arg '%s=%d' not from known values", argName, value),
				ValidSample: v.validValuesSample(10),
			})
			return false
		}
	}
	return true
}

// validValuesSample returns up to n known values, sorted, for diagnostics.
func (v *TraceValidator) validValuesSample(n int) []int {
	sample := make([]int, 0, len(v.validValues))
	for value := range v.validValues {
		sample = append(sample, value)
	}
	sort.Ints(sample)
	if len(sample) > n {
		sample = sample[:n]
	}
	return sample
}

// ProcessToolResult folds a tool result into state.
func (v *TraceValidator) ProcessToolResult(tc agentic.ToolCall, result agentic.Message) {
	switch tc.Tool {
	case listDirToolName:
		basePath, _ := tc.Args["path"].(string)
		v.processListDirResult(basePath, result.Content)
	case calculatorToolName:
		v.processCalculatorResult(result.Content)
	}
}

var (
	subdirLineRe = regexp.MustCompile(`^\s*([^/\s]+)/\s+\(directory`)
	fileLineRe   = regexp.MustCompile(`^\s*(\S+)\s+\(file,\s+([\d,]+)\s+bytes\)`)
)

func (v *TraceValidator) processListDirResult(basePath, result string) {
	for _, line := range strings.Split(result, "\n") {
		if m := subdirLineRe.FindStringSubmatch(line); m != nil {
			subdir := m[1]
			if subdir == "__pycache__" {
				continue
			}
			newPath := subdir
			if basePath != "" {
				newPath = basePath + "/" + subdir
			}
			if !contains(v.requiredCalls, newPath) {
				v.requiredCalls = append(v.requiredCalls, newPath)
			}
			continue
		}

		if m := fileLineRe.FindStringSubmatch(line); m != nil {
			filename := m[1]
			size, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
			if err != nil {
				continue
			}
			v.validValues[size] = true
			if isTestFile(filename) {
				v.testFileSizesSeen[size] = true
			}
		}
	}
}

func (v *TraceValidator) processCalculatorResult(result string) {
	if n, err := strconv.Atoi(strings.TrimSpace(result)); err == nil {
		v.validValues[n] = true
	}
}

// AnswerCheck is the outcome of final-answer validation.
type AnswerCheck struct {
	Passed      bool     `json:"passed"`
	Issues      []string `json:"issues,omitempty"`
	FinalAnswer *int     `json:"final_answer"`
}

var numberRe = regexp.MustCompile(`\d[\d,]*`)

// CheckFinalAnswer verifies the run's answer is correct and came from a
// tool result rather than mental arithmetic. The first number found in the
// result value is taken as the answer; prose around it is tolerated.
func (v *TraceValidator) CheckFinalAnswer(result *agentic.Result, expected int) AnswerCheck {
	check := AnswerCheck{}

	if result != nil && result.Value != "" {
		if m := numberRe.FindString(result.Value); m != "" {
			if n, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil {
				check.FinalAnswer = &n
			}
		}
	}

	if check.FinalAnswer == nil || *check.FinalAnswer != expected {
		actual := "none"
		if check.FinalAnswer != nil {
			actual = strconv.Itoa(*check.FinalAnswer)
		}
		check.Issues = append(check.Issues,
			fmt.Sprintf("wrong answer: expected %d, got %s", expected, actual))
	}

	if check.FinalAnswer != nil && !v.validValues[*check.FinalAnswer] {
		check.Issues = append(check.Issues,
			fmt.Sprintf("answer %d not in tool results (mental calculation?)", *check.FinalAnswer))
	}

	check.Passed = len(check.Issues) == 0
	return check
}

// CompletenessCheck is the outcome of exploration validation.
type CompletenessCheck struct {
	Passed       bool     `json:"passed"`
	MissingCalls []string `json:"missing_calls,omitempty"`
	MissingSizes []int    `json:"missing_sizes,omitempty"`
	ExtraSizes   []int    `json:"extra_sizes,omitempty"`
}

// CheckCompleteness verifies all required directories were listed and every
// expected test file was encountered.
func (v *TraceValidator) CheckCompleteness(expectedTestFileSizes map[int]bool) CompletenessCheck {
	check := CompletenessCheck{}

	if len(v.requiredCalls) > 0 {
		check.MissingCalls = append([]string{}, v.requiredCalls...)
		sort.Strings(check.MissingCalls)
	}
	for size := range expectedTestFileSizes {
		if !v.testFileSizesSeen[size] {
			check.MissingSizes = append(check.MissingSizes, size)
		}
	}
	for size := range v.testFileSizesSeen {
		if !expectedTestFileSizes[size] {
			check.ExtraSizes = append(check.ExtraSizes, size)
		}
	}
	sort.Ints(check.MissingSizes)
	sort.Ints(check.ExtraSizes)

	check.Passed = len(check.MissingCalls) == 0 &&
		len(check.MissingSizes) == 0 && len(check.ExtraSizes) == 0
	return check
}

// TraceSummary aggregates the chronological validation findings.
type TraceSummary struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []Warning   `json:"warnings,omitempty"`
	Metrics    Metrics     `json:"metrics"`
}

// Metrics counts tool usage within a trace.
type Metrics struct {
	TotalToolCalls  int `json:"total_tool_calls"`
	ListDirCalls    int `json:"listdir_calls"`
	CalculatorCalls int `json:"calculator_calls"`
}

// Summary returns the validator's findings so far.
func (v *TraceValidator) Summary() TraceSummary {
	return TraceSummary{
		Passed:     len(v.violations) == 0,
		Violations: v.violations,
		Warnings:   v.warnings,
		Metrics: Metrics{
			TotalToolCalls:  v.toolCallCount,
			ListDirCalls:    v.listDirCalls,
			CalculatorCalls: v.calculatorCalls,
		},
	}
}

// Report is the combined outcome of a full trace validation.
type Report struct {
	Passed       bool              `json:"passed"`
	Answer       AnswerCheck       `json:"answer"`
	Completeness CompletenessCheck `json:"completeness"`
	Trace        TraceSummary      `json:"trace_validation"`
}

// ValidateTrace processes a complete message history chronologically and
// returns a comprehensive report. Tool calls are validated per assistant
// message; results are folded into state as their tool messages appear.
func ValidateTrace(
	messages []agentic.Message,
	gt GroundTruth,
	initialPath string,
	finalResult *agentic.Result,
) Report {
	v := NewTraceValidator(initialPath)

	turn := 0
	for i, msg := range messages {
		switch msg.Role {
		case agentic.RoleAssistant:
			turn++
			for _, tc := range msg.ToolCalls {
				v.ValidateToolCall(tc, turn)
			}

		case agentic.RoleTool:
			if msg.ToolCallID == "" {
				continue
			}
			if tc, ok := findToolCall(messages[:i], msg.ToolCallID); ok {
				v.ProcessToolResult(tc, msg)
			}
		}
	}

	// When the structured result carries no number, fall back to the last
	// finished assistant turn.
	answerResult := finalResult
	if answerResult == nil || numberRe.FindString(answerResult.Value) == "" {
		if value := extractFinalAnswer(messages); value != "" {
			answerResult = &agentic.Result{Value: value}
		}
	}

	answer := v.CheckFinalAnswer(answerResult, gt.ExpectedAnswer)
	completeness := v.CheckCompleteness(gt.TestFileSizes)
	trace := v.Summary()

	return Report{
		Passed:       answer.Passed && completeness.Passed && trace.Passed,
		Answer:       answer,
		Completeness: completeness,
		Trace:        trace,
	}
}

// findToolCall searches backwards for the assistant tool call matching id.
func findToolCall(messages []agentic.Message, id string) (agentic.ToolCall, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		for _, tc := range messages[i].ToolCalls {
			if tc.ID == id {
				return tc, true
			}
		}
	}
	return agentic.ToolCall{}, false
}

func numericArg(args map[string]any, name string) (int, bool) {
	switch n := args[name].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
