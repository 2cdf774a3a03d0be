package resolvepostalcode

import (
	"strings"

	"document-workflow/internal/models"
)

const (
	maxPostalDigits = 7
	// ####-###
	formattedPostalLength = 8
)

// FormatPostalCode keeps the digits of input, truncates to seven and inserts
// a hyphen after the fourth digit when more follow.
func FormatPostalCode(input string) string {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			if digits.Len() == maxPostalDigits {
				break
			}
		}
	}
	d := digits.String()
	if len(d) <= 4 {
		return d
	}
	return d[:4] + "-" + d[4:]
}

// ShouldLookup reports whether a formatted code is complete.
func ShouldLookup(formatted string) bool {
	return len(formatted) == formattedPostalLength
}

// ApplyResult updates addr from a lookup result. A single candidate is applied
// directly; none clears everything but the postal code; several leave addr
// untouched until the user picks one.
func ApplyResult(addr *models.Address, result *Result) {
	switch len(result.Candidates) {
	case 0:
		addr.ClearExceptPostal()
	case 1:
		result.Candidates[0].ApplyTo(addr)
	}
}

// SelectCandidate applies candidates[index] onto addr.
func SelectCandidate(addr *models.Address, candidates []models.AddressCandidate, index int) bool {
	if index < 0 || index >= len(candidates) {
		return false
	}
	candidates[index].ApplyTo(addr)
	return true
}

// SelectOther switches to free-text street entry, keeping postal code and the
// administrative hierarchy of the first candidate.
func SelectOther(addr *models.Address, candidates []models.AddressCandidate) {
	if len(candidates) > 0 {
		candidates[0].ApplyTo(addr)
	}
	addr.Street = ""
}
