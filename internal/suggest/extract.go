package suggest

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")

// ExtractJSON isolates the JSON object in text. A fenced code block yields
// its interior; otherwise text already enclosed in braces is returned as is.
// Bare members (text opening with a quote) get their outer braces added.
// Prose around an object is cut to the span from the first '{' to the last
// '}', and any missing outer brace is added as a last resort.
func ExtractJSON(text string) string {
	if match := fencePattern.FindStringSubmatch(text); match != nil {
		return strings.TrimSpace(match[1])
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, `"`) {
		return wrapBraces(trimmed)
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return trimmed[start : end+1]
		}
	}
	return wrapBraces(trimmed)
}

func wrapBraces(text string) string {
	if !strings.HasPrefix(text, "{") {
		text = "{" + text
	}
	if !strings.HasSuffix(text, "}") {
		text += "}"
	}
	return text
}
