package media

import (
	"strings"
)

// Fields is the canonical field map of a variant, keyed by JSON field name.
type Fields map[string]string

// Get returns the trimmed value stored under key.
func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// Variant is the capability set shared by every content kind. V is the
// concrete variant type itself so Equal stays statically typed.
type Variant[V any] interface {
	Kind() Kind
	Key() string
	Equal(V) bool
	Fields() Fields
	Summary() string
}

// FromFields builds a variant of type V from a loosely keyed field map.
// Field names are matched case-insensitively and per-kind aliases are
// honoured, so a book's author supplied under "artist" is recovered.
func FromFields[V Variant[V]](fields Fields) V {
	lowered := make(Fields, len(fields))
	for key, value := range fields {
		lowered[strings.ToLower(strings.TrimSpace(key))] = value
	}

	var zero V
	var built any
	switch any(zero).(type) {
	case Song:
		built = songFromFields(lowered)
	case Movie:
		built = movieFromFields(lowered)
	case Book:
		built = bookFromFields(lowered)
	case Show:
		built = showFromFields(lowered)
	case Game:
		built = gameFromFields(lowered)
	}
	out, _ := built.(V)
	return out
}

// KindOf reports the kind of the variant type V without needing a value.
func KindOf[V Variant[V]]() Kind {
	var zero V
	return zero.Kind()
}

// resolve returns the first non-empty value among the canonical name and its
// aliases for kind.
func resolve(fields Fields, kind Kind, name string) string {
	if value := fields.Get(name); value != "" {
		return value
	}
	for _, def := range FieldSpec(kind) {
		if def.Name != name {
			continue
		}
		for _, alias := range def.Aliases {
			if value := fields.Get(alias); value != "" {
				return value
			}
		}
	}
	return ""
}

func joinSummary(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part)
	}
	return strings.TrimSpace(b.String())
}
