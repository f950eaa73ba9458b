// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Default returns the catalog the backend ships with.
func Default() *Catalog {
	return &Catalog{
		Version: "1",
		Enums: map[string]EnumField{
			FieldStatus: {
				Values:  []string{"New", "Qualified", "Follow-Up", "Converted", "Contacted"},
				Default: "New",
			},
			FieldQualification: {
				Values:  []string{"High School", "Bachelors", "Masters", "PhD", "Other"},
				Default: "High School",
			},
			FieldInterestField: {
				Values:  []string{"Web Development", "Mobile Development", "Data Science", "Digital Marketing", "UX/UI Design"},
				Default: "Web Development",
			},
			FieldSource: {
				Values:  []string{"Website", "Social Media", "Email Campaign", "Cold Call", "Referral"},
				Default: "Website",
			},
			FieldAssignedTo: {
				Values:  []string{"John Doe", "Jane Smith", "Emily Davis", "Robert Johnson"},
				Default: "John Doe",
			},
			FieldJobInterest: {
				Values:  []string{"Select job interest", "Full Stack Developer", "Frontend Developer", "Backend Developer", "Data Analyst", "Digital Marketer"},
				Default: "Select job interest",
			},
		},
	}
}

// Load reads a catalog from a JSON file. Fields the file omits keep their built-in values.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override Catalog
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	cat := Default()
	if override.Version != "" {
		cat.Version = override.Version
	}
	for name, field := range override.Enums {
		cat.Enums[name] = field
	}

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return cat, nil
}

// LoadOrDefault loads path when set, otherwise returns Default.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks that every known field has values and a default drawn from them.
func (c *Catalog) Validate() error {
	for _, name := range Fields {
		field, ok := c.Enums[name]
		if !ok {
			return fmt.Errorf("field %q missing", name)
		}
		if len(field.Values) == 0 {
			return fmt.Errorf("field %q has no values", name)
		}
		if !field.Contains(field.Default) {
			return fmt.Errorf("default %q of field %q is not an allowed value", field.Default, name)
		}
	}
	return nil
}

// Values returns a copy of the allowed values of field, or nil when unknown.
func (c *Catalog) Values(field string) []string {
	f, ok := c.Enums[field]
	if !ok {
		return nil
	}
	out := make([]string, len(f.Values))
	copy(out, f.Values)
	return out
}

// DefaultFor returns the default of field, or "" when unknown.
func (c *Catalog) DefaultFor(field string) string {
	return c.Enums[field].Default
}

// Allows reports whether value is permitted for field.
func (c *Catalog) Allows(field, value string) bool {
	f, ok := c.Enums[field]
	return ok && f.Contains(value)
}

// Contains reports whether value is one of the field's values.
func (f EnumField) Contains(value string) bool {
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}
