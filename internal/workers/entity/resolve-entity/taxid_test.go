package resolveentity

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxIDValidator_KnownValues(t *testing.T) {
	v := NewTaxIDValidator("")

	tests := []struct {
		taxID string
		valid bool
	}{
		{"123456789", true},
		{"123456780", false},
		{"512345678", true},
		{"999999990", true},
		{"400000000", false}, // disallowed leading digit
		{"000000000", false},
		{"12345678", false},
		{"1234567890", false},
		{"12345678a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.taxID, func(t *testing.T) {
			assert.Equal(t, tt.valid, v.Valid(tt.taxID))
		})
	}
}

func TestTaxIDValidator_ChecksumProperty(t *testing.T) {
	v := NewTaxIDValidator("12356789")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20000; i++ {
		id := fmt.Sprintf("%09d", rng.Intn(1000000000))

		sum := 0
		for j := 0; j < 8; j++ {
			sum += int(id[j]-'0') * (9 - j)
		}
		expected := 11 - sum%11
		if sum%11 < 2 {
			expected = 0
		}
		allowed := id[0] != '0' && id[0] != '4'
		want := allowed && int(id[8]-'0') == expected

		if v.Valid(id) != want {
			t.Fatalf("Valid(%s) = %v, want %v", id, !want, want)
		}
	}
}

func TestTaxIDValidator_ConfiguredPrefixes(t *testing.T) {
	v := NewTaxIDValidator("5")
	assert.True(t, v.Valid("512345678"))
	assert.False(t, v.Valid("123456789"))
}

func TestCheckDigit_CollapsesLowRemainders(t *testing.T) {
	// 99999999: sum = 9*(9+8+...+2) = 396, 396 mod 11 = 0
	assert.Equal(t, 0, CheckDigit("99999999"))
	// 12345678: sum = 156, 156 mod 11 = 2
	assert.Equal(t, 9, CheckDigit("12345678"))
}
