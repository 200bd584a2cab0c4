package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposal_Validate(t *testing.T) {
	tests := []struct {
		name     string
		proposal *Proposal
		wantErr  bool
	}{
		{"nil proposal", nil, true},
		{"nil category", &Proposal{}, true},
		{"existing empty code", &Proposal{Category: ExistingCategory{Code: "  "}}, true},
		{"existing code", &Proposal{Category: ExistingCategory{Code: "tax"}}, false},
		{"new category without code", &Proposal{Category: NewCategory{}}, false},
		{"new category", &Proposal{Category: NewCategory{Code: "MED", Name: "Medical"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.proposal.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidProposal))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategoryProposal_ProposedCode(t *testing.T) {
	var p CategoryProposal = NewCategory{Code: "EDU"}
	assert.Equal(t, "EDU", p.ProposedCode())

	p = ExistingCategory{Code: "BANK"}
	assert.Equal(t, "BANK", p.ProposedCode())
}
