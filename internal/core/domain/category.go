package domain

import (
	"regexp"
	"strings"
	"time"
)

// Category is a short-coded classification bucket.
type Category struct {
	ID          int64
	Code        string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Canonical category codes, in registry order.
const (
	CodeTax       = "TAX"
	CodeBank      = "BANK"
	CodeReceipt   = "REC"
	CodeUtility   = "UTIL"
	CodeInsurance = "INS"
	CodeVisa      = "VISA"
	CodeMedical   = "MED"
	CodeEducation = "EDU"
	CodeLegal     = "LEG"
	CodeWork      = "WORK"
	CodeMisc      = "MISC"
)

// NewCategoryMarker is the proposal code a classifier uses to ask for a new category.
const NewCategoryMarker = "NEW_CATEGORY"

var codePattern = regexp.MustCompile(`^[A-Z]{2,4}$`)

// CategorySuggestion is the canonical display data for a category code.
type CategorySuggestion struct {
	Name        string
	Description string
}

var canonicalCodes = []string{
	CodeTax, CodeBank, CodeReceipt, CodeUtility, CodeInsurance,
	CodeVisa, CodeMedical, CodeEducation, CodeLegal, CodeWork, CodeMisc,
}

var categoryKeywords = map[string][]string{
	CodeTax:       {"tax", "financial", "desk", "office", "filing", "archive"},
	CodeVisa:      {"immigration", "passport", "visa", "safe", "important", "legal"},
	CodeMedical:   {"medical", "medicine", "health", "prescription", "bathroom", "kitchen"},
	CodeInsurance: {"insurance", "medical", "health", "kitchen", "cabinet"},
	CodeEducation: {"education", "diploma", "transcript", "certificate", "school", "archive"},
	CodeLegal:     {"legal", "contract", "agreement", "law", "safe", "important"},
	CodeReceipt:   {"receipt", "purchase", "expense", "transaction", "financial"},
	CodeBank:      {"bank", "banking", "account", "statement", "financial", "safe"},
	CodeUtility:   {"utility", "bill", "electricity", "water", "gas", "internet"},
	CodeWork:      {"work", "employment", "contract", "job", "office", "filing"},
	CodeMisc:      {"unknown", "misc", "other", "unreadable", "uncategorized", "illegible"},
}

var categorySuggestions = map[string]CategorySuggestion{
	CodeBank: {
		Name:        "Banking Documents",
		Description: "Bank statements, account information, and financial records",
	},
	CodeReceipt: {
		Name:        "Receipts",
		Description: "Various receipts for purchases, expenses, and transactions",
	},
	CodeUtility: {
		Name:        "Utility Bills",
		Description: "Utility bills including electricity, water, gas, and internet bills",
	},
	CodeEducation: {
		Name:        "Education Documents",
		Description: "Education-related documents including diplomas, transcripts, and certificates",
	},
	CodeLegal: {
		Name:        "Legal Documents",
		Description: "Legal documents including contracts, agreements, and legal papers",
	},
	CodeWork: {
		Name:        "Work Documents",
		Description: "Work-related documents including employment contracts and work records",
	},
	CodeMisc: {
		Name:        "Miscellaneous Documents",
		Description: "Documents that cannot be classified, unreadable scans, or uncategorized paperwork",
	},
}

var (
	secureCategories   = map[string]bool{CodeTax: true, CodeVisa: true, CodeLegal: true, CodeBank: true}
	frequentCategories = map[string]bool{CodeMedical: true, CodeInsurance: true, CodeReceipt: true, CodeUtility: true}
)

// CanonicalCodes returns the allowed codes for brand-new categories in registry order.
func CanonicalCodes() []string {
	out := make([]string, len(canonicalCodes))
	copy(out, canonicalCodes)
	return out
}

// NormalizeCode upper-cases and trims a category code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCanonicalCode reports whether code is in the canonical registry.
func IsCanonicalCode(code string) bool {
	_, ok := categoryKeywords[NormalizeCode(code)]
	return ok
}

// ValidCode reports whether code has the 2-4 uppercase letter shape.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// CategoryKeywords returns the location-matching keywords for a code.
// Unknown codes have none.
func CategoryKeywords(code string) []string {
	return categoryKeywords[NormalizeCode(code)]
}

// SuggestionFor returns canonical display data for a code.
// Codes without a registry entry get a generic name derived from the code.
func SuggestionFor(code string) CategorySuggestion {
	code = NormalizeCode(code)
	if s, ok := categorySuggestions[code]; ok {
		return s
	}
	return CategorySuggestion{
		Name:        code,
		Description: "Category for documents classified as " + code,
	}
}

// IsSecureCategory reports whether documents of this code belong in secure storage.
func IsSecureCategory(code string) bool {
	return secureCategories[NormalizeCode(code)]
}

// IsFrequentAccessCategory reports whether documents of this code are accessed often.
func IsFrequentAccessCategory(code string) bool {
	return frequentCategories[NormalizeCode(code)]
}
