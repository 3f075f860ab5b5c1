package phone

import "strings"

const slot = 'X'

// DigitsOnly strips every non-digit character.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Format walks mask left to right, substituting one digit of raw for each X
// and copying other mask characters through. It stops when digits run out, so
// partial input yields no trailing separators. Digits beyond the mask's slots are dropped.
func Format(raw, mask string) string {
	digits := DigitsOnly(raw)
	if digits == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(mask))
	i := 0
	for _, r := range mask {
		if i >= len(digits) {
			break
		}
		if r == slot {
			b.WriteByte(digits[i])
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
