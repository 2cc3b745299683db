// Package protocol normalizes raw model output into the canonical
// structured-response JSON shape.
//
// Models return wildly inconsistent text: clean JSON, JSON wrapped in
// markdown fences, ad hoc XML tool-call dialects, chatty preambles, or JSON
// followed by trailing prose. Normalize runs an ordered chain of pure
// conversion strategies over the raw text and returns a string that should
// parse as the canonical response:
//
//	{"reasoning": "...", "tool_calls": [...] | null, "result": "..." | null, "is_finished": bool}
//
// The chain, first match wins:
//
//  1. Verbose XML tool calls: <tool_call><function=NAME><parameter=K>V</parameter>...</function></tool_call>
//  2. Bracketed tool-call blocks: <function_calls>[ {...}, ... ]</function_calls>
//  3. Preamble stripping, fenced-code-block extraction, and string-aware
//     brace-depth JSON extraction.
//
// Normalize never fails. When no known wrapping pattern is detected the
// input passes through unmodified; downstream JSON parsing then fails and is
// handled as a semantic error, not a crash.
package protocol
