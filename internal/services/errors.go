package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrDuplicateSuggestion = errors.New("duplicate suggestion")
	ErrSuggestionNotFound  = errors.New("suggestion not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrPersistence         = errors.New("persistence failure")
	ErrTransport           = errors.New("transport failure")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
	ErrUnsupportedKind     = errors.New("unsupported content kind")
)

// ErrRateLimited is a transport failure reported by the provider as a rate
// limit. errors.Is matches both ErrRateLimited and ErrTransport.
var ErrRateLimited = fmt.Errorf("rate limited: %w", ErrTransport)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPersistence
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusCoder is implemented by errors that carry the HTTP status returned by
// a remote service.
type StatusCoder interface {
	HTTPStatus() int
}

// ProviderMessenger is implemented by errors that carry a provider supplied
// explanation worth showing to the user verbatim.
type ProviderMessenger interface {
	ProviderMessage() string
}

// UserMessage maps an error to the short text shown at the UI boundary.
// Duplicate and not-found conditions get specific messages; transport,
// rate-limit and malformed-response failures get a generic message with
// enough detail to tell "try again" apart from "configure credentials".
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrDuplicateSuggestion):
		return "That suggestion was already made. Ask again for a different one."
	case errors.Is(err, ErrSuggestionNotFound):
		return "That suggestion is not part of this session."
	case errors.Is(err, ErrItemNotFound):
		return "That item is not in the list."
	case errors.Is(err, ErrUnsupportedKind):
		return "That content kind is not supported here."
	case errors.Is(err, ErrRateLimited):
		msg := "The model provider is rate limiting requests. Try again in a moment."
		var pm ProviderMessenger
		if errors.As(err, &pm) && strings.TrimSpace(pm.ProviderMessage()) != "" {
			msg += " (" + strings.TrimSpace(pm.ProviderMessage()) + ")"
		}
		return msg
	case errors.Is(err, ErrConfiguration) || isCredentialFailure(err):
		return "Could not reach the model. Check the API key and provider settings."
	case errors.Is(err, ErrTransport):
		return "Could not reach the model. Try again."
	case errors.Is(err, ErrMalformedResponse):
		return "The model returned an unreadable suggestion. Try again."
	case errors.Is(err, ErrPersistence):
		return "Could not save your changes to disk."
	case errors.Is(err, ErrValidation):
		return "Invalid input: " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}

func isCredentialFailure(err error) bool {
	var coder StatusCoder
	if !errors.As(err, &coder) {
		return false
	}
	switch coder.HTTPStatus() {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
