package validator

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode"
)

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string, message string) Rule {
	if message == "" {
		message = "field is required"
	}
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:          field,
			Message:        message,
			TranslationKey: "validation.required",
			Values:         map[string]any{"field": field},
		},
	}
}

// MinDigits validates that value contains at least min decimal digits, ignoring separators.
func MinDigits(field, value string, min int, message string) Rule {
	if message == "" {
		message = fmt.Sprintf("must contain at least %d digits", min)
	}
	return Rule{
		Check: func() bool {
			return countDigits(value) >= min
		},
		Error: ValidationError{
			Field:          field,
			Message:        message,
			TranslationKey: "validation.min_digits",
			Values:         map[string]any{"field": field, "min": min},
		},
	}
}

// MaxDigits validates that value contains at most max decimal digits.
func MaxDigits(field, value string, max int, message string) Rule {
	if message == "" {
		message = fmt.Sprintf("must contain at most %d digits", max)
	}
	return Rule{
		Check: func() bool {
			return countDigits(value) <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        message,
			TranslationKey: "validation.max_digits",
			Values:         map[string]any{"field": field, "max": max},
		},
	}
}

// Positive validates that an identifier or amount is greater than zero.
func Positive(field string, value int64) Rule {
	return Rule{
		Check: func() bool {
			return value > 0
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be greater than zero",
			TranslationKey: "validation.positive",
			Values:         map[string]any{"field": field},
		},
	}
}

// InList validates that value is one of allowed.
func InList[T comparable](field string, value T, allowed []T) Rule {
	return Rule{
		Check: func() bool {
			return slices.Contains(allowed, value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "value is not allowed",
			TranslationKey: "validation.in_list",
			Values:         map[string]any{"field": field, "allowed": allowed},
		},
	}
}

// AbsoluteURL validates that value is an absolute http or https URL.
func AbsoluteURL(field, value string) Rule {
	return Rule{
		Check: func() bool {
			u, err := url.Parse(value)
			if err != nil {
				return false
			}
			return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be an absolute http(s) URL",
			TranslationKey: "validation.absolute_url",
			Values:         map[string]any{"field": field},
		},
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
