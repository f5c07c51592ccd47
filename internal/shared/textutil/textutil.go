// Package textutil holds rune-aware string helpers shared by the engine and
// the CLI.
package textutil

import (
	"strings"
	"unicode"
)

// TruncateWithEllipsis shortens input to at most limit runes, the last of
// which is an ellipsis.
func TruncateWithEllipsis(input string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	if limit == 1 {
		return "…"
	}
	trimmed := strings.TrimSpace(string(runes[:limit-1]))
	if trimmed == "" {
		trimmed = string(runes[:limit-1])
	}
	return trimmed + "…"
}

// CollapseSpace replaces every whitespace run with a single space and trims
// the ends.
func CollapseSpace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// IsHangul reports whether r is a Hangul syllable or jamo.
func IsHangul(r rune) bool {
	return unicode.Is(unicode.Hangul, r)
}

// SplitList splits a comma separated flag value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
