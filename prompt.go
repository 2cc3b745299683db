package agentic

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

// DefaultSystemPrompt is the system prompt template used when none is
// provided. It carries two placeholders: {tools} is replaced with the
// rendered tool schemas, {response_format} with the JSON Schema of
// AgentResponse.
const DefaultSystemPrompt = `
You are a helpful agent that can use tools to solve problems.

This is the list of tools you have available:
{tools}

CRITICAL: You MUST ALWAYS respond with valid JSON in this exact format:
{response_format}

IMPORTANT RULES:
1. NEVER respond in plain text or natural language
2. Return ONLY raw JSON - no markdown blocks, no ` + "```json" + ` wrappers, no extra text
3. Use "reasoning" to explain your thought process
4. Use "tool_calls" when you need to call tools (can be null if none needed)
5. Use "result" to provide your final answer when is_finished is true
6. Set "is_finished" to true only when you have the complete answer
7. If you can parallelize tool calls, do it, ensure there are no dependencies between the tool calls.

EXAMPLES:

Simple answer (NO tools needed):
{
  "reasoning": "The user asked a simple question I can answer directly.",
  "tool_calls": null,
  "result": "Here is the answer to your question.",
  "is_finished": true
}

Using a tool:
{
  "reasoning": "I need to use the calculator to compute this.",
  "tool_calls": [
    {
      "id": "call_1",
      "tool": "calculator",
      "args": {"operation": "add", "x": 5, "y": 3}
    }
  ],
  "result": null,
  "is_finished": false
}

After receiving tool results:
{
  "reasoning": "The calculator returned 8, which is the answer.",
  "tool_calls": null,
  "result": "The answer is 8.",
  "is_finished": true
}
`

// ResponseFormatSchema returns the JSON Schema for AgentResponse, rendered
// with indentation for embedding in the system prompt.
func ResponseFormatSchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&AgentResponse{})
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		// Reflecting a static struct cannot fail at runtime; keep the prompt
		// usable regardless.
		return "{}"
	}
	return string(data)
}

// RenderSystemPrompt fills the prompt template with tool schemas and the
// response format schema.
func RenderSystemPrompt(template string, tools *Toolset) string {
	var toolDescriptions string
	all := tools.All()
	if len(all) == 0 {
		toolDescriptions = "No tools available\n"
	} else {
		schemas := make([]string, len(all))
		for i, tool := range all {
			schemas[i] = tool.RenderSchema()
		}
		toolDescriptions = strings.Join(schemas, "\n\n") + "\n---\n"
	}

	prompt := strings.ReplaceAll(template, "{tools}", toolDescriptions)
	return strings.ReplaceAll(prompt, "{response_format}", ResponseFormatSchema())
}
