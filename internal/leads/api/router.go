// Package api exposes the lead service over HTTP.
package api

import (
	"context"
	"net/http"

	"lead-crm/internal/common/logger"
	"lead-crm/internal/common/observability"
	"lead-crm/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LeadService is what the handlers need from the lead service.
type LeadService interface {
	List(ctx context.Context) ([]models.Lead, error)
	Create(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error)
}

// Searcher runs free-text lead searches against the search index.
type Searcher interface {
	Search(ctx context.Context, text string) ([]models.Lead, error)
}

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the router. Service is required; everything else is optional.
type Deps struct {
	Service        LeadService
	Searcher       Searcher
	Checks         map[string]Pinger
	Logger         logger.Logger
	Observability  *observability.Observability
	MetricsHandler http.Handler
}

type handler struct {
	service  LeadService
	searcher Searcher
	checks   map[string]Pinger
	logger   logger.Logger
}

// NewRouter builds the HTTP routes of the lead API.
func NewRouter(deps Deps) *mux.Router {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	h := &handler{
		service:  deps.Service,
		searcher: deps.Searcher,
		checks:   deps.Checks,
		logger:   log.WithFields(map[string]interface{}{"component": "lead-api"}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.ready).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	if h.searcher != nil {
		r.HandleFunc("/api/leads/search", h.searchLeads).Methods(http.MethodGet, http.MethodOptions)
	}
	r.HandleFunc("/api/leads", h.listLeads).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/leads", h.createLead).Methods(http.MethodPost, http.MethodOptions)

	r.Use(
		requestID,
		accessLog(h.logger),
		instrument(deps.Observability),
		mux.CORSMethodMiddleware(r),
		cors,
	)
	return r
}
