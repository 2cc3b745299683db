// Package tools provides the built-in agent tools: arithmetic, weather
// lookup, and sandboxed file navigation.
package tools

import (
	"fmt"
	"strings"
)

// argString reads a string argument, returning fallback when absent.
func argString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return fallback
}

// argFloat reads a numeric argument. JSON numbers arrive as float64, but
// protocol conversion may produce native ints.
func argFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// argInt reads an integer argument, returning fallback when absent.
func argInt(args map[string]any, key string, fallback int) int {
	if v, ok := argFloat(args, key); ok {
		return int(v)
	}
	return fallback
}

// argBool reads a boolean argument, returning fallback when absent.
func argBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

// GroupDigits formats n with thousands separators: 71831 -> "71,831".
func GroupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
