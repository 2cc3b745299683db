package eval

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"agentic"
)

// CheckResult is the outcome of a single forensic check.
type CheckResult struct {
	Name    string         `json:"name"`
	Passed  bool           `json:"passed"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// tracedCall is one tool call recovered from a trace, paired with its
// result when one follows.
type tracedCall struct {
	tool      string
	args      map[string]any
	result    string
	hasResult bool
	turnIndex int
}

// extractToolCalls recovers tool calls in order from assistant message
// content, pairing each with the tool message that answers it.
func extractToolCalls(messages []agentic.Message) []tracedCall {
	var calls []tracedCall

	for i, msg := range messages {
		if msg.Role != agentic.RoleAssistant || msg.Content == "" {
			continue
		}
		var parsed agentic.AgentResponse
		if err := json.Unmarshal([]byte(msg.Content), &parsed); err != nil {
			continue
		}
		for _, tc := range parsed.ToolCalls {
			call := tracedCall{tool: tc.Tool, args: tc.Args, turnIndex: i}
			for j := i + 1; j < len(messages) && messages[j].Role == agentic.RoleTool; j++ {
				if messages[j].ToolCallID == tc.ID {
					call.result = messages[j].Content
					call.hasResult = true
					break
				}
			}
			calls = append(calls, call)
		}
	}
	return calls
}

// extractFinalAnswer returns the result of the last finished assistant
// message, or "" when none exists.
func extractFinalAnswer(messages []agentic.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != agentic.RoleAssistant {
			continue
		}
		var parsed agentic.AgentResponse
		if err := json.Unmarshal([]byte(msg.Content), &parsed); err != nil {
			continue
		}
		if parsed.IsFinished && parsed.Result != nil && *parsed.Result != "" {
			return *parsed.Result
		}
	}
	return ""
}

// CheckUsedCalculator verifies the agent did its arithmetic with the
// calculator tool.
func CheckUsedCalculator(messages []agentic.Message) CheckResult {
	count := 0
	for _, tc := range extractToolCalls(messages) {
		if tc.tool == calculatorToolName {
			count++
		}
	}

	if count == 0 {
		return CheckResult{
			Name:    "used_calculator",
			Passed:  false,
			Message: "Agent did not use calculator tool",
			Details: map[string]any{"calculator_calls": 0},
		}
	}
	return CheckResult{
		Name:    "used_calculator",
		Passed:  true,
		Message: fmt.Sprintf("Agent used calculator %d time(s)", count),
		Details: map[string]any{"calculator_calls": count},
	}
}

var answerNumberRe = regexp.MustCompile(`\b\d[\d,]*\b`)

// CheckCorrectAnswer verifies the final answer contains the expected value.
// Any number in the answer matching expected passes; comma formatting is
// tolerated.
func CheckCorrectAnswer(messages []agentic.Message, expected int) CheckResult {
	finalAnswer := extractFinalAnswer(messages)
	if finalAnswer == "" {
		return CheckResult{
			Name:    "correct_answer",
			Passed:  false,
			Message: "No final answer found in messages",
			Details: map[string]any{"expected": expected},
		}
	}

	numbers := answerNumberRe.FindAllString(finalAnswer, -1)
	if len(numbers) == 0 {
		return CheckResult{
			Name:    "correct_answer",
			Passed:  false,
			Message: "Could not extract numeric answer",
			Details: map[string]any{"expected": expected, "actual": finalAnswer},
		}
	}

	actual := make([]int, 0, len(numbers))
	for _, numStr := range numbers {
		n, err := strconv.Atoi(strings.ReplaceAll(numStr, ",", ""))
		if err != nil {
			continue
		}
		if n == expected {
			return CheckResult{
				Name:    "correct_answer",
				Passed:  true,
				Message: fmt.Sprintf("Correct answer: %d", expected),
				Details: map[string]any{"expected": expected, "actual": n},
			}
		}
		actual = append(actual, n)
	}

	return CheckResult{
		Name:    "correct_answer",
		Passed:  false,
		Message: fmt.Sprintf("Wrong answer. Expected %d, found %v", expected, actual),
		Details: map[string]any{"expected": expected, "actual": actual},
	}
}

// CheckUsedOnlyValidValues verifies every calculator operand was either a
// file size from the fixture or a prior calculator result. Catches
// hallucinated sizes and invented intermediate sums.
func CheckUsedOnlyValidValues(messages []agentic.Message, validFileSizes map[int]bool) CheckResult {
	validValues := make(map[int]bool, len(validFileSizes))
	for size := range validFileSizes {
		validValues[size] = true
	}

	var invalid []map[string]any
	calcCalls := 0

	for _, tc := range extractToolCalls(messages) {
		if tc.tool != calculatorToolName {
			continue
		}
		calcCalls++

		for argName := range tc.args {
			value, ok := numericArg(tc.args, argName)
			if ok && !validValues[value] {
				invalid = append(invalid, map[string]any{
					"value": value,
					"arg":   argName,
					"turn":  tc.turnIndex,
				})
			}
		}

		if tc.hasResult {
			if n, err := strconv.Atoi(strings.TrimSpace(tc.result)); err == nil {
				validValues[n] = true
			}
		}
	}

	if len(invalid) > 0 {
		return CheckResult{
			Name:    "used_only_valid_values",
			Passed:  false,
			Message: fmt.Sprintf("Found %d invalid value(s) used in calculator", len(invalid)),
			Details: map[string]any{"invalid_uses": invalid},
		}
	}
	return CheckResult{
		Name:    "used_only_valid_values",
		Passed:  true,
		Message: "All calculator values were valid (file sizes or prior results)",
		Details: map[string]any{"total_calculator_calls": calcCalls},
	}
}

var listingSizeRe = regexp.MustCompile(`\(file, ([\d,]+) bytes\)`)

// CheckUsedCorrectTestFiles verifies the set of file sizes fed to the
// calculator matches exactly the expected test files: nothing missing,
// nothing extra.
func CheckUsedCorrectTestFiles(messages []agentic.Message, expectedSizes map[int]bool) CheckResult {
	calls := extractToolCalls(messages)

	seenSizes := map[int]bool{}
	for _, tc := range calls {
		if tc.tool != listDirToolName || !tc.hasResult {
			continue
		}
		for _, m := range listingSizeRe.FindAllStringSubmatch(tc.result, -1) {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				seenSizes[n] = true
			}
		}
	}

	usedSizes := map[int]bool{}
	for _, tc := range calls {
		if tc.tool != calculatorToolName {
			continue
		}
		for argName := range tc.args {
			// Intermediate sums aren't listing sizes; only count operands
			// that appeared in a directory listing.
			if value, ok := numericArg(tc.args, argName); ok && seenSizes[value] {
				usedSizes[value] = true
			}
		}
	}

	var missing, extra []int
	for size := range expectedSizes {
		if !usedSizes[size] {
			missing = append(missing, size)
		}
	}
	for size := range usedSizes {
		if !expectedSizes[size] {
			extra = append(extra, size)
		}
	}
	sort.Ints(missing)
	sort.Ints(extra)

	if len(missing) > 0 || len(extra) > 0 {
		var issues []string
		if len(missing) > 0 {
			issues = append(issues, fmt.Sprintf("missing %d test file(s)", len(missing)))
		}
		if len(extra) > 0 {
			issues = append(issues, fmt.Sprintf("included %d wrong file(s)", len(extra)))
		}
		return CheckResult{
			Name:    "used_correct_test_files",
			Passed:  false,
			Message: fmt.Sprintf("File filtering error: %s", strings.Join(issues, ", ")),
			Details: map[string]any{
				"expected_count": len(expectedSizes),
				"used_count":     len(usedSizes),
				"missing_sizes":  missing,
				"extra_sizes":    extra,
			},
		}
	}
	return CheckResult{
		Name:    "used_correct_test_files",
		Passed:  true,
		Message: fmt.Sprintf("Correctly used all %d test file sizes", len(expectedSizes)),
		Details: map[string]any{"test_files_used": len(usedSizes)},
	}
}

// CheckExploredRequiredPaths verifies every directory containing a test
// file was listed.
func CheckExploredRequiredPaths(messages []agentic.Message, requiredPaths []string) CheckResult {
	explored := map[string]bool{}
	for _, tc := range extractToolCalls(messages) {
		if tc.tool != listDirToolName {
			continue
		}
		if path, ok := tc.args["path"].(string); ok {
			explored[path] = true
		}
	}

	var missing []string
	for _, p := range requiredPaths {
		if !explored[p] {
			missing = append(missing, p)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:    "explored_required_paths",
			Passed:  false,
			Message: fmt.Sprintf("Did not explore %d required path(s)", len(missing)),
			Details: map[string]any{"required": requiredPaths, "missing": missing},
		}
	}
	return CheckResult{
		Name:    "explored_required_paths",
		Passed:  true,
		Message: fmt.Sprintf("Explored all %d required paths", len(requiredPaths)),
		Details: map[string]any{"paths_explored": len(explored)},
	}
}

// RunAllChecks runs every forensic check against a trace.
func RunAllChecks(messages []agentic.Message, gt GroundTruth) []CheckResult {
	return []CheckResult{
		CheckUsedCalculator(messages),
		CheckCorrectAnswer(messages, gt.ExpectedAnswer),
		CheckUsedOnlyValidValues(messages, gt.TestFileSizes),
		CheckUsedCorrectTestFiles(messages, gt.TestFileSizes),
		CheckExploredRequiredPaths(messages, gt.RequiredPaths),
	}
}
