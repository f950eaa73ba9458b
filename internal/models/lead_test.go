package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateLeadRequest_AsMapOmitsUnset(t *testing.T) {
	req := CreateLeadRequest{Name: "Ada", Email: "ada@example.com", Phone: "123", City: ""}

	assert.Equal(t, map[string]interface{}{
		"name":  "Ada",
		"email": "ada@example.com",
		"phone": "123",
	}, req.AsMap())
}

func TestCreateLeadRequest_ToLead(t *testing.T) {
	req := CreateLeadRequest{Name: "Ada", Email: "ada@example.com", Phone: "123", Source: "Referral", HeardFrom: "friend"}
	lead := req.ToLead()

	assert.Empty(t, lead.ID)
	assert.Equal(t, "Ada", lead.Name)
	assert.Equal(t, "Referral", lead.Source)
	assert.Equal(t, "friend", lead.HeardFrom)
	assert.True(t, lead.CreatedAt.IsZero())
}
