package resolvepostalcode

import (
	"math/rand"
	"strings"
	"testing"

	"document-workflow/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatPostalCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"12", "12"},
		{"1234", "1234"},
		{"12345", "1234-5"},
		{"1234567", "1234-567"},
		{"123456789", "1234-567"},
		{"1234-567", "1234-567"},
		{"12a3 4-56x7", "1234-567"},
		{"abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPostalCode(tt.input))
		})
	}
}

func TestFormatPostalCode_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := "0123456789-- ab"

	for i := 0; i < 5000; i++ {
		n := rng.Intn(16)
		var b strings.Builder
		digits := 0
		for j := 0; j < n; j++ {
			c := alphabet[rng.Intn(len(alphabet))]
			if c >= '0' && c <= '9' {
				digits++
			}
			b.WriteByte(c)
		}
		out := FormatPostalCode(b.String())

		if digits > 4 {
			assert.Equal(t, 1, strings.Count(out, "-"), out)
			assert.Equal(t, 4, strings.Index(out, "-"), out)
		} else {
			assert.NotContains(t, out, "-")
		}
		kept := strings.ReplaceAll(out, "-", "")
		assert.LessOrEqual(t, len(kept), 7)
		assert.Equal(t, digits >= 7, ShouldLookup(out), out)
	}
}

func TestShouldLookup(t *testing.T) {
	assert.True(t, ShouldLookup("1234-567"))
	assert.False(t, ShouldLookup("1234-56"))
	assert.False(t, ShouldLookup("1234"))
}

func TestApplyResult(t *testing.T) {
	first := models.AddressCandidate{
		PostalCode: "1234-567", Street: "Rua A", District: "Lisboa",
		Municipality: "Lisboa", Parish: "Arroios", Locality: "Lisboa",
	}
	second := first
	second.Street = "Rua B"

	t.Run("empty result keeps only the postal code", func(t *testing.T) {
		addr := &models.Address{PostalCode: "1234-567", Street: "Old", Door: "3", District: "Porto"}
		ApplyResult(addr, &Result{PostalCode: "1234-567", ManualMode: true})
		assert.Equal(t, models.Address{PostalCode: "1234-567"}, *addr)
	})

	t.Run("single candidate is applied", func(t *testing.T) {
		addr := &models.Address{PostalCode: "1234-567", Door: "3"}
		ApplyResult(addr, &Result{Candidates: []models.AddressCandidate{first}})
		assert.Equal(t, "Rua A", addr.Street)
		assert.Equal(t, "3", addr.Door)
	})

	t.Run("several candidates wait for a selection", func(t *testing.T) {
		addr := &models.Address{PostalCode: "1234-567"}
		ApplyResult(addr, &Result{Candidates: []models.AddressCandidate{first, second}})
		assert.Empty(t, addr.Street)

		assert.True(t, SelectCandidate(addr, []models.AddressCandidate{first, second}, 1))
		assert.Equal(t, "Rua B", addr.Street)
		assert.False(t, SelectCandidate(addr, []models.AddressCandidate{first}, 3))
	})

	t.Run("other clears the street and keeps the hierarchy", func(t *testing.T) {
		addr := &models.Address{Street: "Rua B"}
		SelectOther(addr, []models.AddressCandidate{first, second})
		assert.Empty(t, addr.Street)
		assert.Equal(t, "1234-567", addr.PostalCode)
		assert.Equal(t, "Arroios", addr.Parish)
		assert.Equal(t, "Lisboa", addr.Locality)
	})
}
