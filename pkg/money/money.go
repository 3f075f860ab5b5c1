package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidCurrency = errors.New("invalid currency code")

// Money is an amount in minor units of an ISO 4217 currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New builds a Money value from minor units.
func New(amount int64, code string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(code))}
}

// Unit resolves the currency code.
func (m Money) Unit() (currency.Unit, error) {
	u, err := currency.ParseISO(m.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, m.Currency)
	}
	return u, nil
}

// Major converts minor units into the currency's major unit using its standard scale.
func (m Money) Major() (float64, error) {
	u, err := m.Unit()
	if err != nil {
		return 0, err
	}
	scale, _ := currency.Standard.Rounding(u)
	return float64(m.Amount) / math.Pow10(scale), nil
}

// Format renders the amount for display in tag, prefixed with the ISO code
// ("GHS 119.88").
func (m Money) Format(tag language.Tag) (string, error) {
	u, err := m.Unit()
	if err != nil {
		return "", err
	}
	major, err := m.Major()
	if err != nil {
		return "", err
	}
	return message.NewPrinter(tag).Sprint(currency.ISO(u.Amount(major))), nil
}

// String formats in English and falls back to "<amount> <code>" for unknown currencies.
func (m Money) String() string {
	s, err := m.Format(language.English)
	if err != nil {
		return fmt.Sprintf("%d %s", m.Amount, m.Currency)
	}
	return s
}
