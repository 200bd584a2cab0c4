package domain

import "fmt"

// Assignment stages reported by AssignmentError.
const (
	AssignmentStageClassify = "classify"
	AssignmentStageResolve  = "resolve"
	AssignmentStageLocation = "location"
)

// Assignment is the resolved category and storage location for a document.
type Assignment struct {
	CategoryCode        string   `json:"category_code"`
	CategoryID          int64    `json:"category_id"`
	CategoryName        string   `json:"category_name,omitempty"`
	LocationID          int64    `json:"location_id,omitempty"`
	LocationName        string   `json:"location_name,omitempty"`
	SuggestedLocationID int64    `json:"suggested_location_id,omitempty"`
	Reason              string   `json:"reason,omitempty"`
	Tags                []string `json:"tags,omitempty"`
	CreatedCategory     bool     `json:"created_category,omitempty"`
}

// HasLocation reports whether a location was assigned.
func (a *Assignment) HasLocation() bool {
	return a != nil && a.LocationID != 0
}

// AssignmentError is the structured failure returned by the assignment engine.
type AssignmentError struct {
	Stage string
	Code  string
	Err   error
}

func (e *AssignmentError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("assignment %s %q: %v", e.Stage, e.Code, e.Err)
	}
	return fmt.Sprintf("assignment %s: %v", e.Stage, e.Err)
}

func (e *AssignmentError) Unwrap() error {
	return e.Err
}
