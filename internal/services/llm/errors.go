package llm

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"nextup/internal/services"
)

// apiError is the provider's error object. Code is a number on some
// providers and a string on others.
type apiError struct {
	Message string          `json:"message"`
	Type    string          `json:"type"`
	Code    json.RawMessage `json:"code"`
}

func (e *apiError) code() string {
	if e == nil || len(e.Code) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Code, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(e.Code))
}

func (e *apiError) isRateLimit() bool {
	if e == nil {
		return false
	}
	code := strings.ToLower(e.code())
	kind := strings.ToLower(e.Type)
	return code == strconv.Itoa(http.StatusTooManyRequests) ||
		strings.Contains(code, "rate_limit") ||
		strings.Contains(kind, "rate_limit") ||
		strings.Contains(code, "rate-limit")
}

// StatusError is a non-2xx reply from the provider.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, summarizePayloadSnippet(e.Body))
}

// HTTPStatus reports the HTTP status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

func (e *StatusError) Unwrap() error { return services.ErrTransport }

// RateLimitError reports that the provider refused the request for rate
// limiting. It matches services.ErrRateLimited and services.ErrTransport.
type RateLimitError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "rate limited"
	}
	return fmt.Sprintf("llm request: rate limited (http %d): %s", e.StatusCode, msg)
}

// ProviderMessage returns the provider's explanation.
func (e *RateLimitError) ProviderMessage() string { return e.Message }

// HTTPStatus reports the HTTP status code.
func (e *RateLimitError) HTTPStatus() int { return e.StatusCode }

func (e *RateLimitError) Unwrap() error { return services.ErrRateLimited }

// APIError is an error object returned inside an otherwise successful reply.
type APIError struct {
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm request: api error %s: %s", e.Code, e.Message)
	}
	return "llm request: api error: " + e.Message
}

func (e *APIError) Unwrap() error { return services.ErrTransport }

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op,
		e.FinishReason,
		e.Refusal,
		e.Snippet,
	)
}

func (e *emptyContentError) Unwrap() error { return services.ErrTransport }

// statusError converts a non-2xx reply into a StatusError or RateLimitError.
func statusError(statusCode int, body []byte, retryAfter time.Duration) error {
	var envelope struct {
		Error *apiError `json:"error"`
	}
	_ = json.Unmarshal(body, &envelope)
	if statusCode == http.StatusTooManyRequests || envelope.Error.isRateLimit() {
		msg := strings.TrimSpace(string(body))
		if envelope.Error != nil && strings.TrimSpace(envelope.Error.Message) != "" {
			msg = strings.TrimSpace(envelope.Error.Message)
		}
		return &RateLimitError{StatusCode: statusCode, Message: msg, RetryAfter: retryAfter}
	}
	return &StatusError{StatusCode: statusCode, Body: strings.TrimSpace(string(body)), RetryAfter: retryAfter}
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
