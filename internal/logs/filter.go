package logs

import (
	"log/slog"
	"strings"

	json "github.com/goccy/go-json"
)

// Filter selects log records. Zero fields match everything.
type Filter struct {
	Component string
	Kind      string
	MinLevel  string
}

// Empty reports whether the filter matches every line.
func (f Filter) Empty() bool {
	return f.Component == "" && f.Kind == "" && f.MinLevel == ""
}

// Match reports whether line passes the filter. JSON records are compared
// field by field; console lines fall back to substring checks.
func (f Filter) Match(line string) bool {
	if f.Empty() {
		return true
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return f.matchText(line)
	}
	if f.Component != "" && !strings.EqualFold(stringField(record, "component"), f.Component) {
		return false
	}
	if f.Kind != "" && !strings.EqualFold(stringField(record, "kind"), f.Kind) {
		return false
	}
	if f.MinLevel != "" && levelOf(stringField(record, "level")) < levelOf(f.MinLevel) {
		return false
	}
	return true
}

func (f Filter) matchText(line string) bool {
	lower := strings.ToLower(line)
	if f.Component != "" && !strings.Contains(lower, "["+strings.ToLower(f.Component)+"]") {
		return false
	}
	if f.Kind != "" && !strings.Contains(lower, strings.ToLower(f.Kind)) {
		return false
	}
	if f.MinLevel != "" {
		found := false
		for _, label := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
			if strings.Contains(line, " "+label+" ") {
				found = levelOf(label) >= levelOf(f.MinLevel)
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func stringField(record map[string]any, key string) string {
	value, _ := record[key].(string)
	return value
}

func levelOf(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
