package protocol

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ToolCallXML converts the verbose XML tool-call dialect some models emit
// instead of JSON:
//
//	<tool_call>
//	<function=calculator>
//	<parameter=operation>add</parameter>
//	<parameter=x>5022</parameter>
//	<parameter=y>11075</parameter>
//	</function>
//	</tool_call>
//
// Text preceding the first block becomes the reasoning. Parameter values are
// coerced to numbers when they look numeric (int unless a "." is present).
// Call ids are synthesized sequentially: call_1, call_2, ...
type ToolCallXML struct{}

var (
	toolCallBlockRe = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)
	functionNameRe  = regexp.MustCompile(`<function=([^>]+)>`)
	parameterRe     = regexp.MustCompile(`(?s)<parameter=([^>]+)>(.*?)</parameter>`)
)

// Name implements Dialect.
func (d *ToolCallXML) Name() string { return "tool_call_xml" }

// Convert implements Dialect.
func (d *ToolCallXML) Convert(raw string) (string, bool) {
	blocks := toolCallBlockRe.FindAllStringSubmatch(raw, -1)
	if len(blocks) == 0 {
		return raw, false
	}

	firstBlock := toolCallBlockRe.FindStringIndex(raw)
	reasoning := strings.TrimSpace(raw[:firstBlock[0]])
	if reasoning == "" {
		reasoning = FallbackReasoning
	}

	var calls []toolCall
	for _, block := range blocks {
		fn := functionNameRe.FindStringSubmatch(block[1])
		if fn == nil {
			continue
		}
		name := strings.TrimSpace(fn[1])

		args := make(map[string]any)
		for _, param := range parameterRe.FindAllStringSubmatch(block[1], -1) {
			key := strings.TrimSpace(param[1])
			args[key] = coerceScalar(strings.TrimSpace(param[2]))
		}

		calls = append(calls, toolCall{
			ID:   fmt.Sprintf("call_%d", len(calls)+1),
			Tool: name,
			Args: args,
		})
	}

	if len(calls) == 0 {
		return raw, false
	}
	return marshalCanonical(reasoning, calls)
}

// coerceScalar converts a parameter value to int or float when it parses as
// one, otherwise keeps the string.
func coerceScalar(value string) any {
	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		return value
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}
