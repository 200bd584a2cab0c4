package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
	"github.com/custodia-labs/docshelf/internal/metrics"
)

// AssignmentEngine resolves a document's category and storage location.
// Category and mapping read-modify-write runs under mu so concurrent
// ingestions cannot create the same category or mapping twice.
type AssignmentEngine struct {
	mu         sync.Mutex
	classifier driven.Classifier
	categories driven.CategoryStore
	locations  driven.LocationStore
	mappings   driven.MappingStore
	retry      *RetryPolicy
}

// NewAssignmentEngine creates an assignment engine.
// The classifier may be nil; Assign then fails with ErrLLMUnavailable.
func NewAssignmentEngine(
	classifier driven.Classifier,
	categories driven.CategoryStore,
	locations driven.LocationStore,
	mappings driven.MappingStore,
	retry *RetryPolicy,
) *AssignmentEngine {
	if retry == nil {
		retry = NewRetryPolicy(domain.RetrySettings{})
	}
	return &AssignmentEngine{
		classifier: classifier,
		categories: categories,
		locations:  locations,
		mappings:   mappings,
		retry:      retry,
	}
}

// Assign classifies text and resolves the final category and location.
// Failures are returned as *domain.AssignmentError.
func (e *AssignmentEngine) Assign(ctx context.Context, text string) (*domain.Assignment, error) {
	if e.classifier == nil {
		return nil, &domain.AssignmentError{Stage: domain.AssignmentStageClassify, Err: domain.ErrLLMUnavailable}
	}

	cats, err := e.categories.List(ctx)
	if err != nil {
		return nil, &domain.AssignmentError{Stage: domain.AssignmentStageClassify, Err: fmt.Errorf("load categories: %w", err)}
	}
	locs, err := e.locations.List(ctx)
	if err != nil {
		return nil, &domain.AssignmentError{Stage: domain.AssignmentStageClassify, Err: fmt.Errorf("load locations: %w", err)}
	}

	var proposal *domain.Proposal
	err = e.retry.Do(ctx, "classify", func(ctx context.Context) error {
		p, cerr := e.classifier.Classify(ctx, text, cats, locs)
		if cerr != nil {
			return cerr
		}
		if verr := p.Validate(); verr != nil {
			return verr
		}
		proposal = p
		return nil
	})
	if err != nil {
		return nil, &domain.AssignmentError{
			Stage: domain.AssignmentStageClassify,
			Err:   fmt.Errorf("%w: %w", domain.ErrClassificationFailed, err),
		}
	}
	logger.Debug("Classifier proposed %q", proposal.Category.ProposedCode())

	e.mu.Lock()
	defer e.mu.Unlock()

	cat, created, err := e.resolveCategory(ctx, proposal.Category)
	if err != nil {
		return nil, err
	}

	assignment := &domain.Assignment{
		CategoryCode:        cat.Code,
		CategoryID:          cat.ID,
		CategoryName:        cat.Name,
		SuggestedLocationID: proposal.SuggestedLocationID,
		Reason:              proposal.Reason,
		Tags:                proposal.Tags,
		CreatedCategory:     created,
	}

	// The catalog may have been re-imported while the classifier ran.
	locs, err = e.locations.List(ctx)
	if err != nil {
		return nil, &domain.AssignmentError{Stage: domain.AssignmentStageLocation, Code: cat.Code, Err: err}
	}
	loc, err := e.assignLocation(ctx, cat, created, locs)
	if err != nil {
		return nil, &domain.AssignmentError{Stage: domain.AssignmentStageLocation, Code: cat.Code, Err: err}
	}
	if loc != nil {
		assignment.LocationID = loc.ID
		assignment.LocationName = loc.Name
	}
	return assignment, nil
}

// ResolveCategory maps a proposal onto a stored category.
// The boolean reports whether the proposal led to a new category.
func (e *AssignmentEngine) ResolveCategory(ctx context.Context, proposal domain.CategoryProposal) (*domain.Category, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolveCategory(ctx, proposal)
}

func (e *AssignmentEngine) resolveCategory(ctx context.Context, proposal domain.CategoryProposal) (*domain.Category, bool, error) {
	existing, err := e.categories.List(ctx)
	if err != nil {
		return nil, false, &domain.AssignmentError{Stage: domain.AssignmentStageResolve, Err: err}
	}

	switch p := proposal.(type) {
	case domain.NewCategory:
		code := domain.NormalizeCode(p.Code)
		if !domain.IsCanonicalCode(code) {
			substitute := firstUnusedCanonical(existing)
			logger.Warn("Invalid new category code %q, using %s", p.Code, substitute)
			code = substitute
		}
		suggestion := domain.SuggestionFor(code)
		name, desc := p.Name, p.Description
		if name == "" {
			name = suggestion.Name
		}
		if desc == "" {
			desc = suggestion.Description
		}
		cat, err := e.ensureCategory(ctx, code, name, desc)
		if err != nil {
			return nil, false, &domain.AssignmentError{Stage: domain.AssignmentStageResolve, Code: code, Err: err}
		}
		return cat, true, nil

	case domain.ExistingCategory:
		code := domain.NormalizeCode(p.Code)
		for i := range existing {
			if strings.EqualFold(existing[i].Code, code) {
				return &existing[i], false, nil
			}
		}
		if domain.IsCanonicalCode(code) {
			logger.Info("Canonical code %s has no category yet, creating it", code)
			suggestion := domain.SuggestionFor(code)
			cat, err := e.ensureCategory(ctx, code, suggestion.Name, suggestion.Description)
			if err != nil {
				return nil, false, &domain.AssignmentError{Stage: domain.AssignmentStageResolve, Code: code, Err: err}
			}
			return cat, true, nil
		}
		return nil, false, &domain.AssignmentError{
			Stage: domain.AssignmentStageResolve,
			Code:  code,
			Err:   domain.ErrUnresolvableCategory,
		}

	default:
		return nil, false, &domain.AssignmentError{Stage: domain.AssignmentStageResolve, Err: domain.ErrInvalidProposal}
	}
}

// firstUnusedCanonical returns the first registry code with no category row, or MISC.
func firstUnusedCanonical(existing []domain.Category) string {
	used := make(map[string]bool, len(existing))
	for _, c := range existing {
		used[domain.NormalizeCode(c.Code)] = true
	}
	for _, code := range domain.CanonicalCodes() {
		if !used[code] {
			return code
		}
	}
	return domain.CodeMisc
}

// EnsureCategory returns the category with code, creating it if missing.
func (e *AssignmentEngine) EnsureCategory(ctx context.Context, code, name, description string) (*domain.Category, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureCategory(ctx, code, name, description)
}

func (e *AssignmentEngine) ensureCategory(ctx context.Context, code, name, description string) (*domain.Category, error) {
	code = domain.NormalizeCode(code)
	if !domain.ValidCode(code) {
		return nil, fmt.Errorf("%w: category code %q", domain.ErrInvalidInput, code)
	}

	cat, err := e.categories.GetByCode(ctx, code)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get category %s: %w", code, err)
	}

	if name == "" {
		name = domain.SuggestionFor(code).Name
	}
	cat, err = e.categories.Create(ctx, &domain.Category{Code: code, Name: name, Description: description})
	if err != nil {
		return nil, fmt.Errorf("create category %s: %w", code, err)
	}
	metrics.CategoriesCreatedTotal.Inc()
	logger.Info("Created category %s (%s) with ID %d", cat.Code, cat.Name, cat.ID)
	return cat, nil
}

// AssignLocation picks the storage location for a category.
// The result only depends on the catalog, the mappings and the category code.
func (e *AssignmentEngine) AssignLocation(ctx context.Context, cat *domain.Category, created bool) (*domain.Location, error) {
	locs, err := e.locations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assignLocation(ctx, cat, created, locs)
}

func (e *AssignmentEngine) assignLocation(
	ctx context.Context, cat *domain.Category, created bool, locs []domain.Location,
) (*domain.Location, error) {
	if len(locs) == 0 {
		logger.Warn("No locations in catalog, leaving %s unplaced", cat.Code)
		return nil, nil
	}

	catMappings, err := e.mappings.ListByCategory(ctx, cat.ID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	preferred := domain.PreferredMapping(catMappings)

	if preferred != nil {
		if loc := findLocation(locs, preferred.LocationID); loc != nil {
			logger.Debug("Using preferred location %d for %s", loc.ID, cat.Code)
			return loc, nil
		}
		logger.Debug("Preferred location %d no longer in catalog", preferred.LocationID)
	}

	all, err := e.mappings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	used := make(map[int64]bool, len(all))
	for _, m := range all {
		used[m.LocationID] = true
	}

	// Locations this category is barred from are never candidates.
	barred := make(map[int64]bool, len(catMappings))
	for _, m := range catMappings {
		if !m.Allowed {
			barred[m.LocationID] = true
		}
	}
	candidates := make([]domain.Location, 0, len(locs))
	unused := make([]domain.Location, 0, len(locs))
	for _, l := range locs {
		if barred[l.ID] {
			continue
		}
		candidates = append(candidates, l)
		if !used[l.ID] {
			unused = append(unused, l)
		}
	}
	if len(candidates) == 0 {
		logger.Warn("Every location is disallowed for %s, leaving it unplaced", cat.Code)
		return nil, nil
	}

	chosen, score := bestLocation(cat.Code, unused)
	if score == 0 {
		chosen, score = bestLocation(cat.Code, candidates)
	}
	if score == 0 {
		chosen = &candidates[0]
	}

	if created || preferred == nil {
		err := e.mappings.Create(ctx, &domain.CategoryLocationMapping{
			CategoryID: cat.ID,
			LocationID: chosen.ID,
			Priority:   domain.DefaultMappingPriority,
			Allowed:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("create mapping: %w", err)
		}
	}
	return chosen, nil
}

func findLocation(locs []domain.Location, id int64) *domain.Location {
	for i := range locs {
		if locs[i].ID == id {
			return &locs[i]
		}
	}
	return nil
}

// bestLocation returns the highest-scoring location; the earliest wins ties.
func bestLocation(code string, locs []domain.Location) (*domain.Location, int) {
	var best *domain.Location
	bestScore := 0
	for i := range locs {
		if s := scoreLocation(code, &locs[i]); s > bestScore {
			best, bestScore = &locs[i], s
		}
	}
	return best, bestScore
}

// scoreLocation counts category keywords found in the location's name and description.
func scoreLocation(code string, loc *domain.Location) int {
	text := strings.ToLower(loc.Name + " " + loc.Description)
	score := 0
	for _, kw := range domain.CategoryKeywords(code) {
		if strings.Contains(text, strings.ToLower(kw)) {
			score++
		}
	}
	return score
}
