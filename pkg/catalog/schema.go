// pkg/catalog/schema.go
package catalog

// Field names of the enumerated lead attributes, as they appear on the wire.
const (
	FieldStatus        = "status"
	FieldQualification = "qualification"
	FieldInterestField = "interestField"
	FieldSource        = "source"
	FieldAssignedTo    = "assignedTo"
	FieldJobInterest   = "jobInterest"
)

// Fields lists the enumerated attributes in display order.
var Fields = []string{
	FieldStatus,
	FieldQualification,
	FieldInterestField,
	FieldSource,
	FieldAssignedTo,
	FieldJobInterest,
}

// Catalog is the set of allowed values and defaults for the enumerated lead fields.
type Catalog struct {
	Version string               `json:"version"`
	Enums   map[string]EnumField `json:"enums"`
}

// EnumField is one enumerated attribute.
type EnumField struct {
	Values  []string `json:"values"`
	Default string   `json:"default"`
}
