package protocol

import "encoding/json"

// FallbackReasoning is substituted when a tool-call dialect carries no text
// before its first tool-call block.
const FallbackReasoning = "Calling tools to gather information."

// Dialect converts one known model output format into canonical response
// JSON. Convert returns the converted text and true when the dialect
// matched, or the input untouched and false otherwise. Implementations must
// be pure: no side effects, no failures.
type Dialect interface {
	// Name identifies the dialect in diagnostics.
	Name() string

	// Convert attempts the conversion.
	Convert(raw string) (string, bool)
}

// dialects is the fixed priority order. Format-conversion dialects run
// first; the JSON extractor is the terminal catch-all.
var dialects = []Dialect{
	&ToolCallXML{},
	&FunctionCallsBlock{},
}

// Normalize converts raw model output to canonical response JSON. If no
// dialect matches, it falls back to ExtractJSON which strips preambles,
// unwraps fenced code blocks, and slices out the first balanced JSON
// object. The worst case is returning unparsable text unchanged.
func Normalize(raw string) string {
	for _, d := range dialects {
		if converted, ok := d.Convert(raw); ok {
			return converted
		}
	}
	return ExtractJSON(raw)
}

// toolCall mirrors the canonical tool-call shape without importing the root
// package (which imports protocol).
type toolCall struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// canonical is the wire shape emitted by dialect conversions. Result is
// always null and IsFinished always false: a turn that calls tools cannot
// simultaneously finish.
type canonical struct {
	Reasoning  string     `json:"reasoning"`
	ToolCalls  []toolCall `json:"tool_calls"`
	Result     *string    `json:"result"`
	IsFinished bool       `json:"is_finished"`
}

func marshalCanonical(reasoning string, calls []toolCall) (string, bool) {
	data, err := json.Marshal(canonical{
		Reasoning: reasoning,
		ToolCalls: calls,
	})
	if err != nil {
		return "", false
	}
	return string(data), true
}
