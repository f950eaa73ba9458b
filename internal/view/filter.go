package view

import "strings"

// Filterable field names, as used in FilterSet and FieldFilter.Field.
const (
	FieldStatus        = "status"
	FieldSource        = "source"
	FieldQualification = "qualification"
	FieldInterestField = "interestField"
	FieldAssignedTo    = "assignedTo"
)

// FilterableFields lists the accepted FieldFilter.Field names in display order.
var FilterableFields = []string{FieldStatus, FieldSource, FieldQualification, FieldInterestField, FieldAssignedTo}

type predicate func(LeadView) bool

// attribute resolves a filterable field name to the view attribute it reads.
// interestField reads Interest.
func attribute(lv LeadView, field string) (string, bool) {
	switch field {
	case FieldStatus:
		return lv.Status, true
	case FieldSource:
		return lv.Source, true
	case FieldQualification:
		return lv.Qualification, true
	case FieldInterestField:
		return lv.Interest, true
	case FieldAssignedTo:
		return lv.AssignedTo, true
	}
	return "", false
}

// IsFilterableField reports whether name can be used in a FieldFilter.
func IsFilterableField(name string) bool {
	_, ok := attribute(LeadView{}, name)
	return ok
}

func exactMatch(field, want string) predicate {
	return func(lv LeadView) bool {
		got, _ := attribute(lv, field)
		return got != "" && got == want
	}
}

func substringMatch(field, want string) predicate {
	want = strings.ToLower(want)
	return func(lv LeadView) bool {
		got, _ := attribute(lv, field)
		return got != "" && strings.Contains(strings.ToLower(got), want)
	}
}

// predicates builds the FilterSet predicate list in fixed field order,
// followed by the additional filters in their given order.
func predicates(f FilterSet) []predicate {
	var out []predicate

	named := []struct {
		field string
		value string
	}{
		{FieldStatus, f.Status},
		{FieldSource, f.Source},
		{FieldQualification, f.Qualification},
		{FieldInterestField, f.InterestField},
		{FieldAssignedTo, f.AssignedTo},
	}
	for _, n := range named {
		if n.value != "" {
			out = append(out, exactMatch(n.field, n.value))
		}
	}

	for _, af := range f.AdditionalFilters {
		if af.Value == "" || !IsFilterableField(af.Field) {
			continue
		}
		out = append(out, substringMatch(af.Field, af.Value))
	}

	return out
}

func matchesSearch(lv LeadView, query string) bool {
	for _, s := range []string{lv.Name, lv.Contact, lv.AssignedTo} {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// Apply narrows all by searchText and filters. It never modifies all and
// keeps the relative order of the surviving records.
//
// The search text is matched case-insensitively against name, contact and
// assignedTo and is always AND-ed with the FilterSet. FilterSet predicates
// combine with AND for MatchAll and OR for MatchAny.
func Apply(all []LeadView, filters FilterSet, searchText string) []LeadView {
	query := strings.ToLower(strings.TrimSpace(searchText))
	preds := predicates(filters)
	anyOf := ParseMatchType(string(filters.MatchType)) == MatchAny

	out := make([]LeadView, 0, len(all))
	for _, lv := range all {
		if query != "" && !matchesSearch(lv, query) {
			continue
		}
		if len(preds) > 0 && !combine(preds, anyOf, lv) {
			continue
		}
		out = append(out, lv)
	}
	return out
}

func combine(preds []predicate, anyOf bool, lv LeadView) bool {
	if anyOf {
		for _, p := range preds {
			if p(lv) {
				return true
			}
		}
		return false
	}
	for _, p := range preds {
		if !p(lv) {
			return false
		}
	}
	return true
}
