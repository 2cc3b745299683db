package protocol

import "regexp"

var preambleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*Assistant:\s*`),
	regexp.MustCompile(`(?i)^\s*Here\s+(?:is|are)\s+(?:the\s+)?(?:JSON|response|result)s?:?\s*`),
	regexp.MustCompile(`(?i)^\s*Response:\s*`),
	regexp.MustCompile(`(?i)^\s*Output:\s*`),
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n(.*?)\n```")

// ExtractJSON slices the first JSON object out of free-form model text. It
// strips known preambles, unwraps a fenced code block when one is present,
// then scans from the first "{" counting brace depth. The scanner tracks
// double-quoted string state (backslash-escape aware) so braces inside
// string literals are not counted; this is what makes trailing garbage like
// `}  Hope this helps!` survivable.
//
// If depth never returns to zero the text from the first "{" onward is
// returned; if there is no "{" at all the input is returned unmodified and
// the caller's JSON parse fails as a semantic error.
func ExtractJSON(raw string) string {
	for _, re := range preambleRes {
		raw = re.ReplaceAllString(raw, "")
	}

	if m := fencedBlockRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	start := -1
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return raw
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	return raw[start:]
}
