package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// identityFields are dropped from JSON records when empty so a missing kind
// or session never shows up as "".
var identityFields = map[string]struct{}{
	FieldKind:          {},
	FieldUser:          {},
	FieldSessionKey:    {},
	FieldSuggestionKey: {},
	FieldCorrelationID: {},
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) (slog.Handler, error) {
	opts := slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	}
	return slog.NewJSONHandler(w, &opts), nil
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.String("ts", formatJSONTimestamp(attr.Value.Time()))
		}
		attr.Key = "ts"
	case slog.LevelKey:
		return slog.String("level", strings.ToLower(attr.Value.String()))
	case slog.SourceKey:
		if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String("caller", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	case FieldKind:
		attr.Value = slog.StringValue(strings.ToLower(strings.TrimSpace(attr.Value.String())))
	}
	if _, ok := identityFields[attr.Key]; ok && strings.TrimSpace(attr.Value.String()) == "" {
		return slog.Attr{}
	}
	if attr.Value.Kind() == slog.KindDuration {
		return slog.Int64(attr.Key+"_ms", attr.Value.Duration().Milliseconds())
	}
	return attr
}
