package resolveentity

import "strings"

// DefaultAllowedPrefixes are the leading digits accepted when none are configured.
const DefaultAllowedPrefixes = "12356789"

// TaxIDValidator checks the 9-digit fiscal identifier checksum.
type TaxIDValidator struct {
	allowed string
}

func NewTaxIDValidator(allowedPrefixes string) TaxIDValidator {
	if allowedPrefixes == "" {
		allowedPrefixes = DefaultAllowedPrefixes
	}
	return TaxIDValidator{allowed: allowedPrefixes}
}

// Valid reports whether taxID is nine digits, starts with an allowed digit and
// carries the right check digit.
func (v TaxIDValidator) Valid(taxID string) bool {
	if len(taxID) != 9 {
		return false
	}
	for i := 0; i < 9; i++ {
		if taxID[i] < '0' || taxID[i] > '9' {
			return false
		}
	}
	if !strings.ContainsRune(v.allowed, rune(taxID[0])) {
		return false
	}
	return CheckDigit(taxID[:8]) == int(taxID[8]-'0')
}

// CheckDigit computes the check digit over eight digits with weights 9..2.
// Remainders below 2 collapse to 0.
func CheckDigit(first8 string) int {
	sum := 0
	for i := 0; i < 8; i++ {
		sum += int(first8[i]-'0') * (9 - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}
