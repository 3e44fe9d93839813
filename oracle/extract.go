package oracle

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractJSON pulls a JSON object out of a model reply. Models wrap their
// answers in markdown fences or surround them with prose often enough that
// strict decoding of the raw reply is a losing game, so three candidates are
// tried in order: the body of a fenced code block, the first balanced
// {...} span, and finally the trimmed reply itself. The first candidate that
// is valid JSON wins.
func ExtractJSON(raw string) (string, error) {
	for _, candidate := range []string{fencedBlock(raw), bracedSpan(raw), strings.TrimSpace(raw)} {
		if candidate != "" && gjson.Valid(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no valid JSON found in reply")
}

// fencedBlock returns the contents of the first ```json or ``` fenced block,
// or "" when the reply has none.
func fencedBlock(raw string) string {
	start := strings.Index(raw, "```")
	if start < 0 {
		return ""
	}
	rest := raw[start+3:]
	if trimmed, ok := strings.CutPrefix(rest, "json"); ok {
		rest = trimmed
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// bracedSpan returns the first balanced top-level {...} span, or "" when the
// braces never balance. Braces inside string literals are rare in practice
// for classification replies; candidates that trip on them simply fail
// validation and the next tier takes over.
func bracedSpan(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}
