// Package vision extracts document text by sending the scan to a
// vision-capable chat model.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/images"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
)

// Ensure Extractor implements the interfaces.
var (
	_ driven.TextExtractor    = (*Extractor)(nil)
	_ driven.PromptStoreAware = (*Extractor)(nil)
)

const (
	// MaxImageBytes caps the scan size sent to the model.
	MaxImageBytes = 20 << 20

	// DefaultMaxTokens bounds the transcription length.
	DefaultMaxTokens = 4096

	fallbackPrompt = "Transcribe all text visible in this scanned document. Preserve line breaks."
)

// Extractor performs OCR through an LLM chat call with an attached image.
type Extractor struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	maxTokens   int
}

// New creates a vision extractor.
func New(llm driven.LLMService) *Extractor {
	return &Extractor{llm: llm, maxTokens: DefaultMaxTokens}
}

// SetPromptStore sets the store the extract prompt is loaded from.
func (e *Extractor) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// ExtractText reads the scan at source and asks the model to transcribe it.
// Vision models report no confidence, so Confidence is left at zero.
func (e *Extractor) ExtractText(ctx context.Context, source string) (*domain.Extraction, error) {
	dataURL, err := loadDataURL(ctx, source)
	if err != nil {
		return nil, err
	}

	text, err := e.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "user", Content: e.prompt(), ImageURL: dataURL},
	}, driven.ChatOptions{MaxTokens: e.maxTokens})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: no text found in %s", domain.ErrExtractionFailed, source)
	}
	return &domain.Extraction{Text: text, Pages: 1}, nil
}

func (e *Extractor) prompt() string {
	if e.promptStore == nil {
		return fallbackPrompt
	}
	p, err := e.promptStore.Load(driven.PromptExtract)
	if err != nil || p == "" {
		return fallbackPrompt
	}
	return p
}

func loadDataURL(ctx context.Context, source string) (string, error) {
	rc, _, err := images.Open(ctx, source)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", source, err)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, MaxImageBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image %s", domain.ErrInvalidInput, source)
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: %s is %s, not an image", domain.ErrInvalidInput, source, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
