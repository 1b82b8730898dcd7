package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// Error carries the field-level violations of a rejected value.
type Error struct {
	Violations []Violation
}

func NewError(violations ...Violation) *Error {
	return &Error{Violations: violations}
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the field has a violation of the given constraint.
func (e *Error) Has(field, constraint string) bool {
	for _, v := range e.Violations {
		if v.Field == field && v.Constraint == constraint {
			return true
		}
	}
	return false
}

var entityValidator = newValidator("validate")

// Validate checks v against its validate tags. It returns nil, a *Error with
// the violations found, or the validator's own error when v is not a struct.
func Validate(v any) error {
	return translate(entityValidator.Struct(v))
}

func newValidator(tagName string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(tagName)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})
	return v
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &Error{Violations: make([]Violation, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Violations = append(out.Violations, Violation{
			Field:      fe.Field(),
			Constraint: fe.Tag(),
			Message:    message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This value should not be blank."
	case "gt":
		return fmt.Sprintf("This value should be greater than %s.", fe.Param())
	case "email":
		return "This value is not a valid email address."
	case "min":
		return fmt.Sprintf("This value is too short. It should have %s characters or more.", fe.Param())
	case "max":
		return fmt.Sprintf("This value is too long. It should have %s characters or less.", fe.Param())
	default:
		return "This value is not valid."
	}
}
