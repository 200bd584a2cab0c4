package domain

import "fmt"

// CategoryProposal is the classifier's category choice.
// It is either a NewCategory or an ExistingCategory.
type CategoryProposal interface {
	// ProposedCode returns the code the classifier put forward.
	ProposedCode() string

	isCategoryProposal()
}

// NewCategory asks for a brand-new category.
// Code should come from the canonical registry; Name and Description are optional.
type NewCategory struct {
	Code        string
	Name        string
	Description string
}

// ProposedCode returns the requested canonical code.
func (n NewCategory) ProposedCode() string { return n.Code }

func (NewCategory) isCategoryProposal() {}

// ExistingCategory points at a category by code.
type ExistingCategory struct {
	Code string
}

// ProposedCode returns the referenced code.
func (e ExistingCategory) ProposedCode() string { return e.Code }

func (ExistingCategory) isCategoryProposal() {}

// Proposal is the full classification result returned by a Classifier.
type Proposal struct {
	Category            CategoryProposal
	SuggestedLocationID int64
	Reason              string
	Tags                []string
}

// Validate checks the proposal at the boundary before it reaches assignment.
func (p *Proposal) Validate() error {
	if p == nil || p.Category == nil {
		return fmt.Errorf("%w: missing category", ErrInvalidProposal)
	}
	if _, ok := p.Category.(ExistingCategory); ok && NormalizeCode(p.Category.ProposedCode()) == "" {
		return fmt.Errorf("%w: empty category code", ErrInvalidProposal)
	}
	return nil
}
