// Package classifier implements driven.Classifier on top of a language model.
//
// The model receives the category and location catalogs plus the cleaned
// document text and must reply with a JSON proposal. Replies wrapped in
// markdown fences are accepted.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// Ensure Classifier implements the interfaces.
var (
	_ driven.Classifier       = (*Classifier)(nil)
	_ driven.PromptStoreAware = (*Classifier)(nil)
)

// DefaultMaxTokens bounds the proposal reply.
const DefaultMaxTokens = 512

// fallbackPrompt is used when no PromptStore is configured.
const fallbackPrompt = `Classify the document and pick a storage location.

%s

%s

DOCUMENT TEXT:
%s
---

Reply with JSON: {"category_code": "...", "suggested_location_id": 0, "suggested_tags": [], "recommendation_reason": "...", "new_category_code": "...", "new_category_name": "...", "new_category_description": "..."}`

// Classifier asks an LLM for a category and location proposal.
type Classifier struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	maxTokens   int
	temperature float64
}

// New creates a classifier backed by the given LLM.
func New(llm driven.LLMService) *Classifier {
	return &Classifier{
		llm:         llm,
		maxTokens:   DefaultMaxTokens,
		temperature: 0.2,
	}
}

// SetPromptStore sets the store the classify template is loaded from.
func (c *Classifier) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// reply mirrors the JSON object the prompt asks for.
type reply struct {
	CategoryCode           string   `json:"category_code"`
	SuggestedLocationID    flexInt  `json:"suggested_location_id"`
	SuggestedLocationName  string   `json:"suggested_location_name"`
	SuggestedTags          []string `json:"suggested_tags"`
	RecommendationReason   string   `json:"recommendation_reason"`
	NewCategoryCode        string   `json:"new_category_code"`
	NewCategoryName        string   `json:"new_category_name"`
	NewCategoryDescription string   `json:"new_category_description"`
}

// Classify renders the prompt, calls the model and parses the proposal.
func (c *Classifier) Classify(
	ctx context.Context,
	text string,
	categories []domain.Category,
	locations []domain.Location,
) (*domain.Proposal, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty document text", domain.ErrInvalidInput)
	}

	prompt := fmt.Sprintf(c.template(), formatCategories(categories), formatLocations(locations), text)

	raw, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	proposal, err := Parse(raw)
	if err != nil {
		logger.Debug("Unparseable classifier reply: %q", raw)
		return nil, err
	}
	return proposal, nil
}

// Parse converts a model reply into a Proposal.
func Parse(raw string) (*domain.Proposal, error) {
	body := stripFences(raw)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var r reply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidProposal, err)
	}

	code := domain.NormalizeCode(r.CategoryCode)
	if code == "" {
		return nil, fmt.Errorf("%w: missing category_code", domain.ErrInvalidProposal)
	}

	var category domain.CategoryProposal
	if code == domain.NewCategoryMarker {
		category = domain.NewCategory{
			Code:        domain.NormalizeCode(r.NewCategoryCode),
			Name:        strings.TrimSpace(r.NewCategoryName),
			Description: strings.TrimSpace(r.NewCategoryDescription),
		}
	} else {
		category = domain.ExistingCategory{Code: code}
	}

	tags := make([]string, 0, len(r.SuggestedTags))
	for _, tag := range r.SuggestedTags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return &domain.Proposal{
		Category:            category,
		SuggestedLocationID: int64(r.SuggestedLocationID),
		Reason:              strings.TrimSpace(r.RecommendationReason),
		Tags:                tags,
	}, nil
}

func (c *Classifier) template() string {
	if c.promptStore == nil {
		return fallbackPrompt
	}
	prompt, err := c.promptStore.Load(driven.PromptClassify)
	if err != nil {
		logger.Warn("Failed to load classify prompt, using built-in: %v", err)
		return fallbackPrompt
	}
	return prompt
}

func formatCategories(categories []domain.Category) string {
	var b strings.Builder
	b.WriteString("EXISTING CATEGORIES (use one of these exact codes):\n")
	if len(categories) == 0 {
		b.WriteString("  (none yet)\n")
	}
	for _, cat := range categories {
		fmt.Fprintf(&b, "  '%s' - %s: %s\n", cat.Code, cat.Name, cat.Description)
	}

	b.WriteString("\nCANONICAL CODES (new_category_code must be one of these):\n")
	for _, code := range domain.CanonicalCodes() {
		s := domain.SuggestionFor(code)
		fmt.Fprintf(&b, "  '%s' - %s: %s\n", code, s.Name, s.Description)
	}
	return b.String()
}

func formatLocations(locations []domain.Location) string {
	if len(locations) == 0 {
		return "STORAGE LOCATIONS: none available, use 0 for suggested_location_id."
	}
	var b strings.Builder
	b.WriteString("STORAGE LOCATIONS (suggested_location_id must be one of these IDs):\n")
	for _, loc := range locations {
		desc := loc.Description
		if desc == "" {
			desc = "No description available."
		}
		fmt.Fprintf(&b, "ID %d: %s\n  Description: %s\n", loc.ID, loc.Name, desc)
	}
	return b.String()
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("location id %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}
