package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"lead-crm/internal/common/logger"
	"lead-crm/internal/common/validation"
	"lead-crm/internal/models"
)

var (
	ErrLoadFailed            = errors.New("LEAD_LOAD_FAILED")
	ErrCreateFailed          = errors.New("LEAD_CREATE_FAILED")
	ErrMissingRequiredFields = errors.New("LEAD_REQUIRED_FIELDS_MISSING")
	ErrInvalidFields         = errors.New("LEAD_FIELDS_INVALID")
)

// LeadAPI is the subset of the lead API the synchronizer consumes. A
// response with Success=false is a reported failure, not a transport error.
type LeadAPI interface {
	ListLeads(ctx context.Context) (*models.ListLeadsResponse, error)
	CreateLead(ctx context.Context, req models.CreateLeadRequest) (*models.CreateLeadResponse, error)
}

// RejectedError is a create the API refused. Message is meant for the user.
type RejectedError struct {
	Message string
	Errors  []string
}

func (e *RejectedError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Errors, "; "))
}

func (e *RejectedError) Unwrap() error {
	return ErrCreateFailed
}

// Options configures a Synchronizer.
type Options struct {
	Logger logger.Logger
	// Location formats updatedDate/updatedTime. Defaults to time.Local.
	Location *time.Location
	// Clock stamps records without an updatedAt. Defaults to time.Now.
	Clock func() time.Time
}

// Synchronizer owns the authoritative lead list and the filtered list
// derived from it. The filtered list is always Apply(leads, filters, search).
type Synchronizer struct {
	api    LeadAPI
	logger logger.Logger
	loc    *time.Location
	clock  func() time.Time

	mu       sync.RWMutex
	leads    []LeadView
	filtered []LeadView
	filters  FilterSet
	search   string
}

func NewSynchronizer(api LeadAPI, opts Options) *Synchronizer {
	s := &Synchronizer{
		api:      api,
		logger:   opts.Logger,
		loc:      opts.Location,
		clock:    opts.Clock,
		leads:    []LeadView{},
		filtered: []LeadView{},
		filters:  FilterSet{MatchType: MatchAll},
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// OnLoad fetches every lead and replaces the authoritative list. On any
// failure the current state is kept and an error wrapping ErrLoadFailed is returned.
func (s *Synchronizer) OnLoad(ctx context.Context) error {
	resp, err := s.api.ListLeads(ctx)
	if err != nil {
		s.logger.Warn("Lead list fetch failed", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	if resp == nil || !resp.Success {
		msg := "empty response"
		if resp != nil {
			msg = resp.Message
		}
		s.logger.Warn("Lead API reported list failure", map[string]interface{}{"message": msg})
		return fmt.Errorf("%w: %s", ErrLoadFailed, msg)
	}

	views := ProjectAll(resp.Data, s.loc, s.clock())

	s.mu.Lock()
	s.leads = views
	s.recomputeLocked()
	count := len(s.filtered)
	s.mu.Unlock()

	s.logger.Debug("Lead list replaced", map[string]interface{}{
		"total":    len(views),
		"filtered": count,
	})
	return nil
}

// OnLeadCreated shows created at the head of the list right away, then
// refetches. The refetch replaces the list wholesale, so the optimistic
// entry never survives alongside the server's copy.
func (s *Synchronizer) OnLeadCreated(ctx context.Context, created LeadView) error {
	s.mu.Lock()
	leads := make([]LeadView, 0, len(s.leads)+1)
	leads = append(leads, created)
	s.leads = append(leads, s.leads...)
	s.recomputeLocked()
	s.mu.Unlock()

	return s.OnLoad(ctx)
}

// OnFilterChange stores filters and recomputes the filtered list.
func (s *Synchronizer) OnFilterChange(filters FilterSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = filters.Clone()
	s.recomputeLocked()
}

// OnSearchChange stores the search text and recomputes the filtered list.
func (s *Synchronizer) OnSearchChange(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.search = text
	s.recomputeLocked()
}

// CreateLead submits fields to the API. Nothing is inserted locally unless
// the API confirms the create. When the create succeeds but the follow-up
// refresh fails, the view is returned together with an ErrLoadFailed error.
func (s *Synchronizer) CreateLead(ctx context.Context, fields models.CreateLeadRequest) (LeadView, error) {
	var missing []string
	if strings.TrimSpace(fields.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(fields.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(fields.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return LeadView{}, fmt.Errorf("%w: %s", ErrMissingRequiredFields, strings.Join(missing, ", "))
	}
	if invalid := malformedContacts(fields); len(invalid) > 0 {
		return LeadView{}, fmt.Errorf("%w: %s", ErrInvalidFields, strings.Join(invalid, ", "))
	}

	resp, err := s.api.CreateLead(ctx, fields)
	if err != nil {
		s.logger.Warn("Lead create request failed", map[string]interface{}{"error": err.Error()})
		return LeadView{}, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	if resp == nil || !resp.Success || resp.Data == nil {
		rejected := &RejectedError{Message: "Lead could not be created"}
		if resp != nil {
			if resp.Message != "" {
				rejected.Message = resp.Message
			}
			rejected.Errors = resp.Errors
		}
		s.logger.Info("Lead create rejected", map[string]interface{}{
			"message": rejected.Message,
			"errors":  rejected.Errors,
		})
		return LeadView{}, rejected
	}

	created := Project(*resp.Data, s.loc, s.clock())
	if err := s.OnLeadCreated(ctx, created); err != nil {
		return created, err
	}
	return created, nil
}

// malformedContacts names the e-mail and phone fields that would fail the
// server's format checks. Empty optional fields are skipped.
func malformedContacts(f models.CreateLeadRequest) []string {
	var out []string
	check := func(name, value string, optional bool, valid func(string) bool) {
		value = strings.TrimSpace(value)
		if optional && value == "" {
			return
		}
		if !valid(value) {
			out = append(out, name)
		}
	}
	check("phone", f.Phone, false, validation.ValidatePhone)
	check("altPhone", f.AltPhone, true, validation.ValidatePhone)
	check("email", f.Email, false, validation.ValidateEmail)
	check("altEmail", f.AltEmail, true, validation.ValidateEmail)
	return out
}

// Leads returns a copy of the authoritative list.
func (s *Synchronizer) Leads() []LeadView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneViews(s.leads)
}

// Filtered returns a copy of the filtered list.
func (s *Synchronizer) Filtered() []LeadView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneViews(s.filtered)
}

// Filters returns the active filter set.
func (s *Synchronizer) Filters() FilterSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

// SearchText returns the active search text.
func (s *Synchronizer) SearchText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

func (s *Synchronizer) recomputeLocked() {
	s.filtered = Apply(s.leads, s.filters, s.search)
}

func cloneViews(in []LeadView) []LeadView {
	out := make([]LeadView, len(in))
	copy(out, in)
	return out
}
