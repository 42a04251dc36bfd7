// Package validation wraps go-playground/validator so document and response
// checks report ErrValidation with JSON field names.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"nextup/internal/services"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names in error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s and returns an error matching services.ErrValidation
// listing every failing field.
func Struct(s any) error {
	if err := instance().Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

func formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, e.Field()+" "+friendlyMessage(e))
	}
	sort.Strings(messages)
	return fmt.Errorf("%w: %s", services.ErrValidation, strings.Join(messages, "; "))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must not exceed " + e.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
