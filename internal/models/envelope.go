// internal/models/envelope.go
package models

// ListLeadsResponse is the body of GET /api/leads.
type ListLeadsResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    []Lead   `json:"data"`
	Errors  []string `json:"errors,omitempty"`
}

// CreateLeadResponse is the body of POST /api/leads.
type CreateLeadResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *Lead    `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}
