package logging

import (
	"context"
	"log/slog"

	"nextup/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldKind is the standardized structured logging key for content kinds.
	FieldKind = "kind"
	// FieldUser is the standardized structured logging key for the local profile.
	FieldUser = "user"
	// FieldSessionKey is the standardized structured logging key for session documents.
	FieldSessionKey = "session_key"
	// FieldSuggestionKey is the standardized structured logging key for dedup keys.
	FieldSuggestionKey = "suggestion_key"
	// FieldModel is the standardized structured logging key for model identifiers.
	FieldModel = "model"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (e.g. session_load_failed).
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized key for the suggested next step after a failure.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if kind, ok := services.KindFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldKind, kind))
	}
	if user, ok := services.UserFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUser, user))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
