package logging

import (
	"fmt"
	"log/slog"
	"strconv"
)

// maxConsoleValueLen bounds console values; raw model replies can run to
// several kilobytes. JSON output keeps them whole.
const maxConsoleValueLen = 160

// attrString returns the bare text of a header field (component, kind, user).
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

// formatValue renders a trailing console field, quoting and truncating text.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return formatElapsed(v.Duration())
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteText(err.Error())
		}
		return quoteText(fmt.Sprint(v.Any()))
	default:
		return quoteText(v.String())
	}
}

func quoteText(s string) string {
	if runes := []rune(s); len(runes) > maxConsoleValueLen {
		s = string(runes[:maxConsoleValueLen]) + "…"
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
