package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lead-crm/internal/common/errors"
	"lead-crm/internal/models"
)

const (
	msgLeadsRetrieved = "Leads retrieved successfully"
	msgLeadCreated    = "Lead created successfully"
	msgFetchFailed    = "Server Error: Could not fetch leads"
	msgCreateFailed   = "Server Error: Could not create lead"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError renders err as a failure envelope. Server-side failures use
// serverMsg instead of the error's own message.
func writeError(w http.ResponseWriter, err error, serverMsg string) {
	stdErr, ok := errors.AsStandardError(err)
	if !ok {
		stdErr = errors.NewInternalError(err)
	}

	status := errors.HTTPStatus(stdErr.Code)
	body := envelope{Success: false, Message: stdErr.Message, Errors: stdErr.FieldErrors()}
	if status >= http.StatusInternalServerError {
		body = envelope{Success: false, Message: serverMsg}
	}
	writeJSON(w, status, body)
}

func (h *handler) listLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list leads failed", map[string]interface{}{
			"requestId": RequestIDFrom(r.Context()),
			"error":     err.Error(),
		})
		writeError(w, err, msgFetchFailed)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgLeadsRetrieved, Data: leads})
}

func (h *handler) createLead(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLeadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, errors.NewInvalidRequestBodyError(err), msgCreateFailed)
		return
	}

	lead, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create lead failed", map[string]interface{}{
			"requestId": RequestIDFrom(r.Context()),
			"error":     err.Error(),
		})
		writeError(w, err, msgCreateFailed)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: msgLeadCreated, Data: lead})
}

func (h *handler) searchLeads(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.listLeads(w, r)
		return
	}

	leads, err := h.searcher.Search(r.Context(), q)
	if err != nil {
		h.logger.Error("search leads failed", map[string]interface{}{
			"requestId": RequestIDFrom(r.Context()),
			"error":     err.Error(),
		})
		writeError(w, err, msgFetchFailed)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgLeadsRetrieved, Data: leads})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}
