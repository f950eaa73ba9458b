// Package service implements lead creation and listing on top of the store.
package service

import (
	"context"
	stderrors "errors"
	"strings"

	"lead-crm/internal/common/errors"
	"lead-crm/internal/common/logger"
	"lead-crm/internal/common/metrics"
	"lead-crm/internal/common/validation"
	"lead-crm/internal/leads/store"
	"lead-crm/internal/models"
	"lead-crm/pkg/catalog"
)

// Channels a lead can be created through.
const (
	ChannelAPI      = "api"
	ChannelWorkflow = "workflow"
)

type channelKey struct{}

// WithChannel tags ctx with the channel a create request arrived through.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey{}, channel)
}

// ChannelFrom returns the channel stored by WithChannel, defaulting to ChannelAPI.
func ChannelFrom(ctx context.Context) string {
	if ch, ok := ctx.Value(channelKey{}).(string); ok && ch != "" {
		return ch
	}
	return ChannelAPI
}

// Indexer mirrors a created lead into a search index.
type Indexer interface {
	IndexLead(ctx context.Context, lead *models.Lead) error
}

// Notifier tells the assignee about a created lead.
type Notifier interface {
	NotifyAssignment(ctx context.Context, lead *models.Lead) error
}

// Options holds the optional collaborators of a Service.
type Options struct {
	Logger   logger.Logger
	Indexer  Indexer
	Notifier Notifier
}

// Service creates and lists leads.
type Service struct {
	store    store.Store
	catalog  *catalog.Catalog
	schema   validation.JSONSchema
	logger   logger.Logger
	indexer  Indexer
	notifier Notifier
}

func New(st store.Store, cat *catalog.Catalog, opts Options) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		store:    st,
		catalog:  cat,
		schema:   LeadSchema(cat),
		logger:   log.WithFields(map[string]interface{}{"component": "lead-service"}),
		indexer:  opts.Indexer,
		notifier: opts.Notifier,
	}
}

// Catalog returns the active field catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// List returns all leads, newest first.
func (s *Service) List(ctx context.Context) ([]models.Lead, error) {
	leads, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list leads", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewDatabaseQueryFailedError("list_leads", err)
	}
	return leads, nil
}

// Create validates req and stores it as a new lead.
func (s *Service) Create(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error) {
	req = s.normalize(req)

	// Step 1: Validate
	result := validation.ValidateInput(req.AsMap(), s.schema)
	if !result.Valid {
		msgs := fieldMessages(result, s.catalog)
		metrics.LeadCreateRejected.WithLabelValues("validation").Inc()
		s.logger.Info("lead rejected by validation", map[string]interface{}{
			"errors": msgs,
		})
		return nil, errors.NewLeadValidationFailedError(msgs)
	}

	// Step 2: Duplicate check
	exists, err := s.store.ExistsByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("duplicate check failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewDatabaseQueryFailedError("duplicate_check", err)
	}
	if exists {
		metrics.LeadCreateRejected.WithLabelValues("duplicate").Inc()
		return nil, errors.NewDuplicateLeadEmailError(req.Email)
	}

	// Step 3: Insert
	lead := req.ToLead()
	if err := s.store.Insert(ctx, lead); err != nil {
		if stderrors.Is(err, store.ErrDuplicateEmail) {
			metrics.LeadCreateRejected.WithLabelValues("duplicate").Inc()
			return nil, errors.NewDuplicateLeadEmailError(req.Email)
		}
		s.logger.Error("lead insert failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	metrics.LeadsCreated.WithLabelValues(lead.Source, ChannelFrom(ctx)).Inc()
	s.logger.Info("lead created", map[string]interface{}{
		"leadId":     lead.ID,
		"source":     lead.Source,
		"assignedTo": lead.AssignedTo,
	})

	// Step 4: Post-create hooks (non-critical)
	s.afterCreate(ctx, lead)

	return lead, nil
}

func (s *Service) afterCreate(ctx context.Context, lead *models.Lead) {
	if s.indexer != nil {
		if err := s.indexer.IndexLead(ctx, lead); err != nil {
			s.logger.Warn("failed to index lead", map[string]interface{}{
				"leadId": lead.ID,
				"error":  err.Error(),
			})
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyAssignment(ctx, lead); err != nil {
			s.logger.Warn("failed to notify assignee", map[string]interface{}{
				"leadId":     lead.ID,
				"assignedTo": lead.AssignedTo,
				"error":      err.Error(),
			})
		}
	}
}

// normalize trims every field, fills catalog defaults and lowercases e-mails.
func (s *Service) normalize(req models.CreateLeadRequest) models.CreateLeadRequest {
	trim := strings.TrimSpace
	req.Name = trim(req.Name)
	req.Phone = trim(req.Phone)
	req.AltPhone = trim(req.AltPhone)
	req.Email = strings.ToLower(trim(req.Email))
	req.AltEmail = strings.ToLower(trim(req.AltEmail))
	req.State = trim(req.State)
	req.City = trim(req.City)
	req.PassoutYear = trim(req.PassoutYear)
	req.HeardFrom = trim(req.HeardFrom)

	defaults := []struct {
		field string
		value *string
	}{
		{catalog.FieldStatus, &req.Status},
		{catalog.FieldQualification, &req.Qualification},
		{catalog.FieldInterestField, &req.InterestField},
		{catalog.FieldSource, &req.Source},
		{catalog.FieldAssignedTo, &req.AssignedTo},
		{catalog.FieldJobInterest, &req.JobInterest},
	}
	for _, d := range defaults {
		*d.value = trim(*d.value)
		if *d.value == "" {
			*d.value = s.catalog.DefaultFor(d.field)
		}
	}
	return req
}
