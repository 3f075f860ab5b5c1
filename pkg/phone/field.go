package phone

import (
	"github.com/paydesk/console/pkg/validator"
)

const (
	// FieldName is the validation field key for phone input.
	FieldName = "phone_number"

	// MinDigits is the uniform lower bound applied to every country.
	MinDigits = 10
	// MaxDigits is the upper bound used in strict validation.
	MaxDigits = 15

	msgRequired = "Phone number is required"
	msgInvalid  = "Please enter a valid phone number"
)

// Field is the state of a phone input: the selected country and the masked display value.
// The zero value is not usable; call NewField.
type Field struct {
	country Country
	display string
}

// NewField returns an empty field for country.
func NewField(country Country) *Field {
	return &Field{country: country}
}

func (f *Field) Country() Country { return f.country }

func (f *Field) Display() string { return f.display }

// Input applies raw keystrokes and returns the new display value.
func (f *Field) Input(raw string) string {
	f.display = f.country.Format(raw)
	return f.display
}

// SetCountry switches country. Any entered number is cleared; it reports
// whether the country actually changed.
func (f *Field) SetCountry(c Country) bool {
	if c.Code == f.country.Code {
		return false
	}
	f.country = c
	f.display = ""
	return true
}

// Normalized is the value submitted to the billing API.
func (f *Field) Normalized() string {
	return f.country.Normalize(f.display)
}

// Clear empties the display value.
func (f *Field) Clear() { f.display = "" }

// Validate checks the display value for submission. required reflects whether
// the active payment method needs a phone number.
func (f *Field) Validate(required bool) error {
	return Validate(f.display, required)
}

// Validate checks a display or raw value: non-empty when required and at least MinDigits digits.
func Validate(value string, required bool) error {
	if !required && DigitsOnly(value) == "" {
		return nil
	}
	return validator.ApplyFirst(
		validator.RequiredString(FieldName, value, msgRequired),
		validator.MinDigits(FieldName, value, MinDigits, msgInvalid),
	)
}

// ValidateStrict additionally bounds the number to MaxDigits digits.
func ValidateStrict(value string) error {
	return validator.ApplyFirst(
		validator.RequiredString(FieldName, value, msgRequired),
		validator.MinDigits(FieldName, value, MinDigits, msgInvalid),
		validator.MaxDigits(FieldName, value, MaxDigits, msgInvalid),
	)
}
