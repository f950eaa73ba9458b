package crmleadcreate

import (
	"context"

	"lead-crm/internal/models"
)

// LeadCreator is the part of the lead service the worker calls.
type LeadCreator interface {
	Create(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error)
}

type Output struct {
	Success    bool   `json:"leadCreated"`
	Message    string `json:"leadMessage"`
	LeadID     string `json:"leadId,omitempty"`
	Status     string `json:"leadStatus,omitempty"`
	AssignedTo string `json:"leadAssignedTo,omitempty"`
}

// Variables renders the output as process variables.
func (o *Output) Variables() map[string]interface{} {
	vars := map[string]interface{}{
		"leadCreated": o.Success,
		"leadMessage": o.Message,
	}
	if o.LeadID != "" {
		vars["leadId"] = o.LeadID
	}
	if o.Status != "" {
		vars["leadStatus"] = o.Status
	}
	if o.AssignedTo != "" {
		vars["leadAssignedTo"] = o.AssignedTo
	}
	return vars
}
