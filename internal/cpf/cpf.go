// Package cpf validates Brazilian CPF document numbers.
package cpf

import "strings"

// Normalize strips everything but digits from a CPF, so formatted input
// ("529.982.247-25") and bare digits compare equal.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValid reports whether the input is a well-formed CPF: 11 digits, not a
// single repeated digit, with both check digits matching the mod-11 scheme.
func IsValid(raw string) bool {
	digits := Normalize(raw)
	if len(digits) != 11 {
		return false
	}

	same := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			same = false
			break
		}
	}
	if same {
		return false
	}

	return checkDigit(digits, 9) == int(digits[9]-'0') &&
		checkDigit(digits, 10) == int(digits[10]-'0')
}

func checkDigit(digits string, length int) int {
	sum := 0
	for i := 0; i < length; i++ {
		sum += int(digits[i]-'0') * (length + 1 - i)
	}
	rem := (sum * 10) % 11
	if rem == 10 {
		return 0
	}
	return rem
}
