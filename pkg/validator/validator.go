// Package validator provides small composable validation rules for HTML
// form input.
package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError is a single field-level failure.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors collects failures across a form.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the field has at least one failure.
func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Get returns the failure messages for a field.
func (ve ValidationErrors) Get(field string) []string {
	var messages []string
	for _, err := range ve {
		if err.Field == field {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

// Rule is one check with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs all rules and returns the accumulated failures, or nil when
// everything passed.
func Apply(rules ...Rule) ValidationErrors {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Required fails on empty or whitespace-only values.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "is required"},
	}
}

// MaxLen fails when the value exceeds max runes.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)},
	}
}

// InList fails when the value is not one of the allowed choices. An empty
// value passes; combine with Required when the field is mandatory.
func InList(field, value string, allowed []string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			for _, a := range allowed {
				if value == a {
					return true
				}
			}
			return false
		},
		Error: ValidationError{Field: field, Message: "is not a valid choice"},
	}
}
