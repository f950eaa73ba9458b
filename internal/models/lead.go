// internal/models/lead.go
package models

import "time"

// Lead is a stored lead record.
type Lead struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	AltPhone      string    `json:"altPhone,omitempty"`
	Email         string    `json:"email"`
	AltEmail      string    `json:"altEmail,omitempty"`
	Status        string    `json:"status"`
	Qualification string    `json:"qualification"`
	InterestField string    `json:"interestField"`
	Source        string    `json:"source"`
	AssignedTo    string    `json:"assignedTo"`
	JobInterest   string    `json:"jobInterest"`
	State         string    `json:"state,omitempty"`
	City          string    `json:"city,omitempty"`
	PassoutYear   string    `json:"passoutYear,omitempty"`
	HeardFrom     string    `json:"heardFrom,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateLeadRequest carries user-supplied fields for a new lead. Empty strings mean unset.
type CreateLeadRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	AltPhone      string `json:"altPhone,omitempty"`
	Email         string `json:"email"`
	AltEmail      string `json:"altEmail,omitempty"`
	Status        string `json:"status,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	InterestField string `json:"interestField,omitempty"`
	Source        string `json:"source,omitempty"`
	AssignedTo    string `json:"assignedTo,omitempty"`
	JobInterest   string `json:"jobInterest,omitempty"`
	State         string `json:"state,omitempty"`
	City          string `json:"city,omitempty"`
	PassoutYear   string `json:"passoutYear,omitempty"`
	HeardFrom     string `json:"heardFrom,omitempty"`
}

// ToLead copies the request into a new, unsaved Lead.
func (r CreateLeadRequest) ToLead() *Lead {
	return &Lead{
		Name:          r.Name,
		Phone:         r.Phone,
		AltPhone:      r.AltPhone,
		Email:         r.Email,
		AltEmail:      r.AltEmail,
		Status:        r.Status,
		Qualification: r.Qualification,
		InterestField: r.InterestField,
		Source:        r.Source,
		AssignedTo:    r.AssignedTo,
		JobInterest:   r.JobInterest,
		State:         r.State,
		City:          r.City,
		PassoutYear:   r.PassoutYear,
		HeardFrom:     r.HeardFrom,
	}
}

// AsMap renders the request as a plain document for schema validation.
// Unset fields are omitted.
func (r CreateLeadRequest) AsMap() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}
	set("name", r.Name)
	set("phone", r.Phone)
	set("altPhone", r.AltPhone)
	set("email", r.Email)
	set("altEmail", r.AltEmail)
	set("status", r.Status)
	set("qualification", r.Qualification)
	set("interestField", r.InterestField)
	set("source", r.Source)
	set("assignedTo", r.AssignedTo)
	set("jobInterest", r.JobInterest)
	set("state", r.State)
	set("city", r.City)
	set("passoutYear", r.PassoutYear)
	set("heardFrom", r.HeardFrom)
	return out
}
