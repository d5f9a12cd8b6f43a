package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError describes one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists every violated constraint of an input.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidationError reports whether err carries ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: errorMessage(fe.Field(), fe.Tag(), fe.Param())})
	}
	return out
}

func validateVar(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", field, err)
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: field, Message: errorMessage(field, fe.Tag(), fe.Param())})
	}
	return out
}

func errorMessage(field, tag, param string) string {
	switch {
	case field == "currency" && (tag == "len" || tag == "alpha"):
		return "currency must be a 3-letter code (e.g., USD)"
	case field == "month" && tag == "datetime":
		return "month must be in YYYY-MM format"
	case field == "date" && tag == "datetime":
		return "date must be in YYYY-MM-DD format"
	}
	switch tag {
	case "required":
		return field + " is required"
	case "gt":
		if param == "0" {
			return field + " must be a positive integer"
		}
		return field + " must be greater than " + param
	case "min":
		return field + " must not be empty"
	case "len":
		return field + " must be exactly " + param + " characters"
	case "datetime":
		return field + " must be a valid ISO 8601 date-time string"
	case "email":
		return field + " must be a valid email address"
	default:
		return field + " is invalid"
	}
}
