package services

import "context"

type contextKey string

const (
	kindKey      contextKey = "kind"
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

// WithKind annotates context with the content kind being served.
func WithKind(ctx context.Context, kind string) context.Context {
	if kind == "" {
		return ctx
	}
	return context.WithValue(ctx, kindKey, kind)
}

// KindFromContext returns the content kind if present.
func KindFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(kindKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUser annotates context with the local profile name.
func WithUser(ctx context.Context, user string) context.Context {
	if user == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the profile name if present.
func UserFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(userKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
