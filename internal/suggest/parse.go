package suggest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"nextup/internal/media"
	"nextup/internal/services"
	"nextup/internal/validation"
)

// Response is a parsed suggestion. Raw always holds the reply text.
type Response[V media.Variant[V]] struct {
	Content      V      `json:"content"`
	PrimaryGenre string `json:"primary_genre"`
	Reason       string `json:"reason"`
	Raw          string `json:"-"`
}

// MalformedError reports a reply no strategy could parse. It matches
// services.ErrMalformedResponse.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response: %v (raw: %s)", e.Err, snippet(e.Raw))
}

func (e *MalformedError) Unwrap() []error {
	return []error{services.ErrMalformedResponse, e.Err}
}

// RawFromError returns the raw reply carried by a MalformedError in err's chain.
func RawFromError(err error) (string, bool) {
	var malformed *MalformedError
	if errors.As(err, &malformed) {
		return malformed.Raw, true
	}
	return "", false
}

var (
	genreKeys  = []string{"primary_genre", "genre"}
	reasonKeys = []string{"reason", "reasoning"}
)

// Parse decodes raw into a Response for kind V.
func Parse[V media.Variant[V]](raw string) (Response[V], error) {
	resp, structErr := parseStructured[V](raw)
	if structErr == nil {
		return resp, nil
	}
	resp, regexErr := parseRegex[V](raw)
	if regexErr == nil {
		return resp, nil
	}
	return Response[V]{Raw: raw}, &MalformedError{Raw: raw, Err: errors.Join(structErr, regexErr)}
}

func parseStructured[V media.Variant[V]](raw string) (Response[V], error) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &decoded); err != nil {
		return Response[V]{}, fmt.Errorf("decode json: %w", err)
	}
	fields := flatten(decoded)
	return build[V](raw, fields)
}

// flatten collects scalar fields from the top level and, for gaps, from any
// nested object (content, suggestion, book, ...). Top-level values win.
func flatten(decoded map[string]any) media.Fields {
	fields := make(media.Fields, len(decoded))
	var nested []map[string]any
	for key, value := range decoded {
		if obj, ok := value.(map[string]any); ok {
			nested = append(nested, obj)
			continue
		}
		if s, ok := scalar(value); ok {
			fields[strings.ToLower(key)] = s
		}
	}
	for _, obj := range nested {
		for key, value := range flatten(obj) {
			if _, exists := fields[key]; !exists || strings.TrimSpace(fields[key]) == "" {
				fields[key] = value
			}
		}
	}
	return fields
}

func scalar(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func build[V media.Variant[V]](raw string, fields media.Fields) (Response[V], error) {
	resp := Response[V]{
		Content:      media.FromFields[V](fields),
		PrimaryGenre: firstField(fields, genreKeys),
		Reason:       firstField(fields, reasonKeys),
		Raw:          raw,
	}
	if err := validation.Struct(resp); err != nil {
		return Response[V]{}, err
	}
	return resp, nil
}

func firstField(fields media.Fields, keys []string) string {
	for _, key := range keys {
		if value := fields.Get(key); value != "" {
			return value
		}
	}
	return ""
}

// parseRegex pulls `name: "value"` or `"name": value` pairs out of text that
// is not valid JSON.
func parseRegex[V media.Variant[V]](raw string) (Response[V], error) {
	kind := media.KindOf[V]()
	names := append(media.FieldNames(kind), genreKeys...)
	names = append(names, reasonKeys...)

	fields := make(media.Fields, len(names))
	for _, name := range names {
		if value, ok := matchField(raw, name); ok {
			fields[name] = value
		}
	}
	if fields.Get("title") == "" {
		return Response[V]{}, errors.New("regex fallback: no title found")
	}
	return build[V](raw, fields)
}

// fieldPatterns is filled once at init and only read afterwards.
var fieldPatterns = map[string]*regexp.Regexp{}

func compileFieldPattern(name string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9_])["']?` + quoted + `["']?\s*[:=]\s*(?:"((?:[^"\\]|\\.)*)"|'([^']*)'|([^,\n\r}"]+))`)
}

func fieldPattern(name string) *regexp.Regexp {
	if re, ok := fieldPatterns[name]; ok {
		return re
	}
	return compileFieldPattern(name)
}

func init() {
	for _, kind := range media.Kinds() {
		for _, name := range media.FieldNames(kind) {
			fieldPatterns[name] = compileFieldPattern(name)
		}
	}
	for _, name := range append(append([]string{}, genreKeys...), reasonKeys...) {
		fieldPatterns[name] = compileFieldPattern(name)
	}
}

func matchField(raw, name string) (string, bool) {
	match := fieldPattern(name).FindStringSubmatch(raw)
	if match == nil {
		return "", false
	}
	for _, group := range match[1:] {
		if value := strings.TrimSpace(group); value != "" {
			if unquoted, err := strconv.Unquote(`"` + value + `"`); err == nil {
				value = unquoted
			}
			return value, true
		}
	}
	return "", false
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}
