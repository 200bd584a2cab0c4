package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// minAlnumRatio is the share of letters, digits and spaces a line needs to survive cleaning.
const minAlnumRatio = 0.3

var horizontalSpace = regexp.MustCompile(`[ \t\f\v\r]+`)

// CleanText normalises OCR output.
// Runs of horizontal whitespace collapse to one space, empty lines are
// removed, and lines that are mostly symbols are dropped as scan noise.
func CleanText(text string) (*domain.CleaningResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("clean text: %w: empty input", domain.ErrInvalidInput)
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if line == "" || alnumRatio(line) <= minAlnumRatio {
			continue
		}
		kept = append(kept, line)
	}
	cleaned := strings.Join(kept, "\n")

	return &domain.CleaningResult{
		Original:       text,
		Cleaned:        cleaned,
		OriginalLength: utf8.RuneCountInString(text),
		CleanedLength:  utf8.RuneCountInString(cleaned),
		Applied:        true,
	}, nil
}

func alnumRatio(line string) float64 {
	total, good := 0, 0
	for _, r := range line {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(good) / float64(total)
}

// NormalizeQuery collapses whitespace runs and trims the query.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
