// Package view holds the client-side lead list: projection of API records,
// filtering, and synchronisation with the lead API.
package view

import (
	"strings"
	"time"

	"lead-crm/internal/models"
)

const (
	DateLayout = "01/02/2006"
	TimeLayout = "03:04 PM"
)

// LeadView is the display projection of a lead used for filtering and rendering.
type LeadView struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Contact       string `json:"contact"`
	Status        string `json:"status"`
	Qualification string `json:"qualification"`
	Interest      string `json:"interest"`
	Source        string `json:"source"`
	AssignedTo    string `json:"assignedTo"`
	UpdatedDate   string `json:"updatedDate"`
	UpdatedTime   string `json:"updatedTime"`
}

// MatchType selects how FilterSet predicates combine.
type MatchType string

const (
	MatchAll MatchType = "ALL"
	MatchAny MatchType = "ANY"
)

// ParseMatchType maps any casing of "any" to MatchAny and everything else to MatchAll.
func ParseMatchType(s string) MatchType {
	if strings.EqualFold(strings.TrimSpace(s), string(MatchAny)) {
		return MatchAny
	}
	return MatchAll
}

// FieldFilter is a case-insensitive substring predicate on one filterable field.
type FieldFilter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// FilterSet is the structured filter applied on top of the search text.
// Empty fields are not applied.
type FilterSet struct {
	MatchType         MatchType     `json:"matchType"`
	Status            string        `json:"status,omitempty"`
	Source            string        `json:"source,omitempty"`
	Qualification     string        `json:"qualification,omitempty"`
	InterestField     string        `json:"interestField,omitempty"`
	AssignedTo        string        `json:"assignedTo,omitempty"`
	AdditionalFilters []FieldFilter `json:"additionalFilters,omitempty"`
}

// Clone returns a deep copy of f.
func (f FilterSet) Clone() FilterSet {
	out := f
	if f.AdditionalFilters != nil {
		out.AdditionalFilters = make([]FieldFilter, len(f.AdditionalFilters))
		copy(out.AdditionalFilters, f.AdditionalFilters)
	}
	return out
}

// Project converts a stored lead into its view. A zero UpdatedAt is stamped with now.
func Project(lead models.Lead, loc *time.Location, now time.Time) LeadView {
	updated := lead.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	if loc != nil {
		updated = updated.In(loc)
	}

	return LeadView{
		ID:            lead.ID,
		Name:          lead.Name,
		Contact:       lead.Phone,
		Status:        lead.Status,
		Qualification: lead.Qualification,
		Interest:      lead.InterestField,
		Source:        lead.Source,
		AssignedTo:    lead.AssignedTo,
		UpdatedDate:   updated.Format(DateLayout),
		UpdatedTime:   updated.Format(TimeLayout),
	}
}

// ProjectAll projects every lead, preserving order.
func ProjectAll(leads []models.Lead, loc *time.Location, now time.Time) []LeadView {
	out := make([]LeadView, 0, len(leads))
	for _, lead := range leads {
		out = append(out, Project(lead, loc, now))
	}
	return out
}
