package protocol

import (
	"encoding/json"
	"regexp"
	"strings"
)

// FunctionCallsBlock converts the bracketed tool-call dialect used by some
// Anthropic-family models:
//
//	Reasoning text here...
//	<function_calls>
//	[
//	  {"id": "call_1", "tool": "tool_name", "args": {...}}
//	]
//	</function_calls>
//
// The JSON array inside the tags becomes the tool_calls value verbatim; text
// before the opening tag becomes the reasoning.
type FunctionCallsBlock struct{}

var functionCallsRe = regexp.MustCompile(`(?s)<function_calls>\s*(\[.*?\])\s*</function_calls>`)

// Name implements Dialect.
func (d *FunctionCallsBlock) Name() string { return "function_calls_block" }

// Convert implements Dialect.
func (d *FunctionCallsBlock) Convert(raw string) (string, bool) {
	m := functionCallsRe.FindStringSubmatchIndex(raw)
	if m == nil {
		return raw, false
	}

	var calls []toolCall
	if err := json.Unmarshal([]byte(raw[m[2]:m[3]]), &calls); err != nil {
		// Tags present but the array doesn't parse: pass through so the
		// failure surfaces as a semantic error downstream.
		return raw, false
	}

	reasoning := strings.TrimSpace(raw[:m[0]])
	if reasoning == "" {
		reasoning = FallbackReasoning
	}
	return marshalCanonical(reasoning, calls)
}
