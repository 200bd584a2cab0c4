package driven

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// TextExtractor performs OCR on a scanned document.
//
// Implementations may include:
//   - Vision-capable chat models (OpenAI, Ollama llava)
//   - Plain text passthrough for already-digital files
type TextExtractor interface {
	// ExtractText reads the document at source (path or URL).
	ExtractText(ctx context.Context, source string) (*domain.Extraction, error)
}
