package domain

import (
	"sort"
	"time"
)

// DefaultMappingPriority is used for mappings created during assignment.
const DefaultMappingPriority = 8

// Location is a physical storage spot such as a drawer or shelf.
// IDs are assigned by the external location catalog.
type Location struct {
	ID          int64
	Name        string
	Description string
	PhotoURL    string
	ParentID    int64
}

// LocationInfo is the location display data attached to search hits.
type LocationInfo struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// Info converts a catalog location to its display form.
func (l *Location) Info() *LocationInfo {
	return &LocationInfo{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		PhotoURL:    l.PhotoURL,
	}
}

// CategoryLocationMapping is a persisted affinity between a category and a location.
type CategoryLocationMapping struct {
	ID         int64
	CategoryID int64
	LocationID int64
	Priority   int
	Allowed    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PreferredMapping returns the highest-priority allowed mapping, or nil.
// Equal priorities resolve to the earliest mapping in the given order.
func PreferredMapping(mappings []CategoryLocationMapping) *CategoryLocationMapping {
	allowed := make([]CategoryLocationMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Allowed {
			allowed = append(allowed, m)
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	sort.SliceStable(allowed, func(i, j int) bool {
		return allowed[i].Priority > allowed[j].Priority
	})
	return &allowed[0]
}
