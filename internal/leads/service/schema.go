package service

import (
	"fmt"
	"sort"
	"strings"

	"lead-crm/internal/common/validation"
	"lead-crm/pkg/catalog"
)

// fieldOrder fixes the order validation messages are reported in.
var fieldOrder = []string{
	"name", "phone", "altPhone", "email", "altEmail",
	catalog.FieldStatus, catalog.FieldQualification, catalog.FieldInterestField,
	catalog.FieldSource, catalog.FieldAssignedTo, catalog.FieldJobInterest,
	"state", "city", "passoutYear", "heardFrom",
}

// LeadSchema builds the create-lead JSON schema with enum sets taken from cat.
func LeadSchema(cat *catalog.Catalog) validation.JSONSchema {
	props := map[string]validation.Property{
		"name":        {Type: "string", Description: "Lead full name", MaxLength: validation.IntPtr(100)},
		"phone":       {Type: "string", Description: "Primary phone number", Pattern: validation.PhonePattern},
		"altPhone":    {Type: "string", Description: "Alternate phone number", Pattern: validation.PhonePattern},
		"email":       {Type: "string", Description: "Primary e-mail", Pattern: validation.EmailPattern},
		"altEmail":    {Type: "string", Description: "Alternate e-mail", Pattern: validation.EmailPattern},
		"state":       {Type: "string", MaxLength: validation.IntPtr(50)},
		"city":        {Type: "string", MaxLength: validation.IntPtr(50)},
		"passoutYear": {Type: "string", Pattern: validation.PassoutYearPattern},
		"heardFrom":   {Type: "string", MaxLength: validation.IntPtr(200)},
	}
	for _, field := range catalog.Fields {
		props[field] = validation.Property{Type: "string", Enum: cat.Values(field)}
	}

	return validation.JSONSchema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"name", "phone", "email"},
		AdditionalProperties: false,
	}
}

// fieldMessages renders schema errors as user-facing messages, one per field,
// in form order.
func fieldMessages(result *validation.ValidationResult, cat *catalog.Catalog) []string {
	byField := map[string]string{}
	for _, e := range result.Errors {
		if _, seen := byField[e.Field]; seen {
			continue
		}
		byField[e.Field] = message(e, cat)
	}

	rank := make(map[string]int, len(fieldOrder))
	for i, f := range fieldOrder {
		rank[f] = i
	}
	fields := make([]string, 0, len(byField))
	for f := range byField {
		fields = append(fields, f)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		ri, iok := rank[fields[i]]
		rj, jok := rank[fields[j]]
		if iok != jok {
			return iok
		}
		if ri != rj {
			return ri < rj
		}
		return fields[i] < fields[j]
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, byField[f])
	}
	return out
}

func message(e validation.ValidationError, cat *catalog.Catalog) string {
	switch e.Field {
	case "name":
		if e.Code == "required" {
			return "Name is required"
		}
		return "Name cannot exceed 100 characters"
	case "phone":
		if e.Code == "required" {
			return "Phone number is required"
		}
		return "Please enter a valid phone number"
	case "altPhone":
		return "Please enter a valid alternate phone number"
	case "email":
		if e.Code == "required" {
			return "Email is required"
		}
		return "Please enter a valid email"
	case "altEmail":
		return "Please enter a valid alternate email"
	case catalog.FieldStatus:
		return fmt.Sprintf("Status must be one of: %s", strings.Join(cat.Values(catalog.FieldStatus), ", "))
	case catalog.FieldQualification:
		return fmt.Sprintf("Qualification must be one of: %s", strings.Join(cat.Values(catalog.FieldQualification), ", "))
	case catalog.FieldInterestField:
		return "Interest field must be one of the available options"
	case catalog.FieldSource:
		return "Source must be one of the available options"
	case catalog.FieldAssignedTo:
		return "Assigned to must be one of the available team members"
	case catalog.FieldJobInterest:
		return "Job interest must be one of the available options"
	case "state":
		return "State name cannot exceed 50 characters"
	case "city":
		return "City name cannot exceed 50 characters"
	case "passoutYear":
		return "Passout year must be a valid 4-digit year"
	case "heardFrom":
		return "Heard from cannot exceed 200 characters"
	}
	if e.Code == "additional_property_not_allowed" {
		return fmt.Sprintf("Unknown field: %s", e.Field)
	}
	return e.Message
}
