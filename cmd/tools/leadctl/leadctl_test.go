package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lead-crm/internal/models"
	"lead-crm/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fake lead API
// ==========================

type fakeAPI struct {
	mu       sync.Mutex
	leads    []models.Lead
	listFail bool
	created  []models.CreateLeadRequest
	reject   *models.CreateLeadResponse
}

func (f *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodGet:
			if f.listFail {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(models.ListLeadsResponse{Success: false, Message: "Server Error: Could not fetch leads"})
				return
			}
			_ = json.NewEncoder(w).Encode(models.ListLeadsResponse{Success: true, Data: f.leads})
		case http.MethodPost:
			var req models.CreateLeadRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.created = append(f.created, req)
			if f.reject != nil {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(f.reject)
				return
			}
			now := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
			lead := models.Lead{
				ID: "new-1", Name: req.Name, Phone: req.Phone, Email: req.Email,
				Status: "New", Source: req.Source, CreatedAt: now, UpdatedAt: now,
			}
			f.leads = append([]models.Lead{lead}, f.leads...)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.CreateLeadResponse{Success: true, Message: "Lead created successfully", Data: &lead})
		}
	})
}

func seedLeads() []models.Lead {
	at := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	return []models.Lead{
		{ID: "1", Name: "Ana Silva", Phone: "555-0100", Email: "ana@example.com", Status: "New", Source: "Referral", AssignedTo: "Jane", UpdatedAt: at},
		{ID: "2", Name: "Bob Stone", Phone: "555-0101", Email: "bob@example.com", Status: "Contacted", Source: "Website", AssignedTo: "John", UpdatedAt: at},
		{ID: "3", Name: "Cara Diaz", Phone: "555-0102", Email: "cara@example.com", Status: "New", Source: "Website", AssignedTo: "Janet", UpdatedAt: at},
	}
}

func run(t *testing.T, api *fakeAPI, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--api-url", srv.URL, "--tz", "UTC"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// ==========================
// list
// ==========================

func TestList_AllLeads(t *testing.T) {
	out, err := run(t, &fakeAPI{leads: seedLeads()}, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Ana Silva")
	assert.Contains(t, out, "Bob Stone")
	assert.Contains(t, out, "03/01/2024 09:05 AM")
	assert.Contains(t, out, "3 of 3 leads")
}

func TestList_SearchAndFilters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		count   string
	}{
		{
			name:    "search by name",
			args:    []string{"--search", "bob"},
			want:    []string{"Bob Stone"},
			notWant: []string{"Ana Silva", "Cara Diaz"},
			count:   "1 of 3 leads",
		},
		{
			name:    "exact status",
			args:    []string{"--status", "New"},
			want:    []string{"Ana Silva", "Cara Diaz"},
			notWant: []string{"Bob Stone"},
			count:   "2 of 3 leads",
		},
		{
			name:    "all filters must hold",
			args:    []string{"--status", "New", "--source", "Website"},
			want:    []string{"Cara Diaz"},
			notWant: []string{"Ana Silva", "Bob Stone"},
			count:   "1 of 3 leads",
		},
		{
			name:  "any filter may hold",
			args:  []string{"--match", "any", "--status", "Contacted", "--source", "Referral"},
			want:  []string{"Ana Silva", "Bob Stone"},
			count: "2 of 3 leads",
		},
		{
			name:    "substring filter",
			args:    []string{"--filter", "assignedTo=jan"},
			want:    []string{"Ana Silva", "Cara Diaz"},
			notWant: []string{"Bob Stone"},
			count:   "2 of 3 leads",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, &fakeAPI{leads: seedLeads()}, append([]string{"list"}, tt.args...)...)

			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
			assert.Contains(t, out, tt.count)
		})
	}
}

func TestList_InvalidFilter(t *testing.T) {
	for _, raw := range []string{"status", "=New", "phone=555"} {
		t.Run(raw, func(t *testing.T) {
			_, err := run(t, &fakeAPI{}, "list", "--filter", raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid --filter")
		})
	}
}

func TestList_LoadFailure(t *testing.T) {
	_, err := run(t, &fakeAPI{listFail: true}, "list")

	require.Error(t, err)
	assert.ErrorIs(t, err, view.ErrLoadFailed)
}

func TestList_ClientSectionFromConfigFile(t *testing.T) {
	srv := httptest.NewServer((&fakeAPI{leads: seedLeads()}).handler())
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "client:\n  api_url: " + srv.URL + "\n  timeout: 2000\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--config", path, "--tz", "UTC", "list"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "3 of 3 leads")
}

func TestList_InvalidTimeZone(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--tz", "Not/AZone", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --tz")
}

// ==========================
// create
// ==========================

func TestCreate_Success(t *testing.T) {
	api := &fakeAPI{leads: seedLeads()}
	out, err := run(t, api, "create",
		"--name", "Dan Wu", "--phone", "555-0199", "--email", "dan@example.com", "--source", "Referral")

	require.NoError(t, err)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Dan Wu", api.created[0].Name)
	assert.Equal(t, "Referral", api.created[0].Source)
	assert.Contains(t, out, "Created Dan Wu")
	assert.Contains(t, out, "4 of 4 leads")
}

func TestCreate_Rejected(t *testing.T) {
	api := &fakeAPI{reject: &models.CreateLeadResponse{
		Success: false,
		Message: "Validation Error",
		Errors:  []string{"Please provide a valid email address"},
	}}

	out, err := run(t, api, "create", "--name", "Dan", "--phone", "555", "--email", "dan@example.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, view.ErrCreateFailed)
	assert.Contains(t, out, "Validation Error")
	assert.Contains(t, out, "- Please provide a valid email address")
}

func TestCreate_MalformedEmailRejectedLocally(t *testing.T) {
	api := &fakeAPI{}
	_, err := run(t, api, "create", "--name", "Dan", "--phone", "555", "--email", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, view.ErrInvalidFields)
	assert.Empty(t, api.created)
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	api := &fakeAPI{}
	_, err := run(t, api, "create", "--name", "Dan")

	require.Error(t, err)
	assert.ErrorIs(t, err, view.ErrMissingRequiredFields)
	assert.Empty(t, api.created)
}

// ==========================
// catalog
// ==========================

func TestCatalog_Default(t *testing.T) {
	out, err := run(t, &fakeAPI{}, "catalog")

	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.NotEmpty(t, decoded)
	assert.True(t, strings.HasPrefix(out, "{"))
}

func TestParseFieldFilter(t *testing.T) {
	ff, err := parseFieldFilter("source= web ")
	require.NoError(t, err)
	assert.Equal(t, view.FieldFilter{Field: "source", Value: " web "}, ff)
}
