package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalCodes_Order(t *testing.T) {
	codes := CanonicalCodes()

	require.Len(t, codes, 11)
	assert.Equal(t, []string{"TAX", "BANK", "REC", "UTIL", "INS", "VISA", "MED", "EDU", "LEG", "WORK", "MISC"}, codes)

	// Mutating the copy must not leak into the registry
	codes[0] = "XXX"
	assert.Equal(t, CodeTax, CanonicalCodes()[0])
}

func TestIsCanonicalCode(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"TAX", true},
		{"tax", true},
		{" util ", true},
		{"MISC", true},
		{"ZZZ", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCanonicalCode(tt.code))
		})
	}
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("TAX"))
	assert.True(t, ValidCode("UT"))
	assert.True(t, ValidCode("WORK"))
	assert.False(t, ValidCode("T"))
	assert.False(t, ValidCode("TAXES"))
	assert.False(t, ValidCode("tax"))
	assert.False(t, ValidCode("T4X"))
}

func TestCategoryKeywords(t *testing.T) {
	assert.Contains(t, CategoryKeywords("util"), "electricity")
	assert.Contains(t, CategoryKeywords("BANK"), "safe")
	assert.Empty(t, CategoryKeywords("NOPE"))
}

// TestSuggestionFor tests registry lookups and the generic fallback
func TestSuggestionFor(t *testing.T) {
	s := SuggestionFor("rec")
	assert.Equal(t, "Receipts", s.Name)

	fallback := SuggestionFor("TAX")
	assert.Equal(t, "TAX", fallback.Name)
	assert.Equal(t, "Category for documents classified as TAX", fallback.Description)
}

func TestCategorySets(t *testing.T) {
	for _, code := range []string{CodeTax, CodeVisa, CodeLegal, CodeBank} {
		assert.True(t, IsSecureCategory(code), code)
	}
	for _, code := range []string{CodeMedical, CodeInsurance, CodeReceipt, CodeUtility} {
		assert.True(t, IsFrequentAccessCategory(code), code)
	}
	assert.False(t, IsSecureCategory(CodeMisc))
	assert.False(t, IsFrequentAccessCategory(CodeMisc))
}
