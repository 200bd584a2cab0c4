// Package plaintext provides a TextExtractor for files that already hold text.
package plaintext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/images"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// MaxBytes caps how much of a text file is read.
const MaxBytes = 4 << 20

// Extractor returns file contents verbatim with full confidence.
type Extractor struct{}

// New creates a plaintext extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractText reads source (path or URL) as UTF-8 text.
func (e *Extractor) ExtractText(ctx context.Context, source string) (*domain.Extraction, error) {
	rc, _, err := images.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrExtractionFailed, source)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrExtractionFailed, source)
	}
	return &domain.Extraction{Text: text, Confidence: 1, Pages: 1}, nil
}
