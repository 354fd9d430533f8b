// Package validation wraps go-playground/validator with human-readable
// messages. It is used for pre-request checks in the session controller and
// for request validation in the development backend.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var labels = map[string]string{
	"PasswordConfirmation": "Password confirmation",
	"DateOfBirth":          "Date of birth",
	"AvatarURL":            "Avatar URL",
}

var camel = regexp.MustCompile(`([a-z])([A-Z])`)

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	s := camel.ReplaceAllString(field, "$1 $2")
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Validate checks s against its validate tags.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &ValidationError{Errors: ve}
	}
	return err
}

// ValidationError wraps validator.ValidationErrors.
type ValidationError struct {
	Errors validator.ValidationErrors
}

// Error reports the first failed field; that is what a form shows.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	return Message(e.Errors[0])
}

// Fields maps every failed struct field to its message.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = Message(fe)
	}
	return fields
}

// Message renders a single field error.
func Message(fe validator.FieldError) string {
	name := label(fe.Field())

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "datetime":
		return name + " must be a date in YYYY-MM-DD format"
	case "url":
		return name + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed on '%s' validation", name, fe.Tag())
	}
}
