package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes a single field-level failure.
type ValidationError struct {
	Field          string
	Message        string
	TranslationKey string
	Values         map[string]any
}

// ValidationErrors is a collection of field-level failures that satisfies error.
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

func (ve *ValidationErrors) Add(err ValidationError) {
	*ve = append(*ve, err)
}

func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}

func (ve ValidationErrors) Get(field string) []string {
	var messages []string
	for _, err := range ve {
		if err.Field == field {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

// First returns the first message for field, or an empty string.
func (ve ValidationErrors) First(field string) string {
	for _, err := range ve {
		if err.Field == field {
			return err.Message
		}
	}
	return ""
}

func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, err := range ve {
		if !seen[err.Field] {
			fields = append(fields, err.Field)
			seen[err.Field] = true
		}
	}
	return fields
}

func (ve ValidationErrors) IsEmpty() bool {
	return len(ve) == 0
}

// Rule pairs a check with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply evaluates every rule and aggregates failures.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}

// ApplyFirst evaluates rules in order and stops at the first failure per field.
// Used where a later rule is meaningless once an earlier one failed (required, then length).
func ApplyFirst(rules ...Rule) error {
	var errs ValidationErrors
	for _, rule := range rules {
		if errs.Has(rule.Error.Field) {
			continue
		}
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}

// ExtractValidationErrors extracts ValidationErrors from an error chain.
func ExtractValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErr ValidationErrors
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return nil
}

func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var validationErr ValidationErrors
	return errors.As(err, &validationErr)
}
