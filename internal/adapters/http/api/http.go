// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/outreach/internal/domain/types"
	"github.com/okian/outreach/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	FilingDependencies
	ConsultantDependencies
	ProviderDependencies
	PriorityDependencies
	GroupDependencies
	IngestDependencies
	WorkflowDependencies
}

// Entry mirrors the read shape returned by priority queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	filingsHandler    *FilingsHandler
	consultantHandler *ConsultantHandler
	providersHandler  *ProvidersHandler
	priorityHandler   *PriorityHandler
	groupsHandler     *GroupsHandler
	ingestHandler     *IngestHandler
	workflowsHandler  *WorkflowsHandler

	logger logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used for request and failure logs.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// priority listing size.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int, opts ...ServerOption) *Server {
	s := &Server{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	rep := &responder{logger: s.logger}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.filingsHandler = NewFilingsHandler(deps, rep)
	s.consultantHandler = NewConsultantHandler(deps, rep)
	s.providersHandler = NewProvidersHandler(deps, rep)
	s.priorityHandler = NewPriorityHandler(deps, maxLimit, rep)
	s.groupsHandler = NewGroupsHandler(deps, rep)
	s.ingestHandler = NewIngestHandler(deps, rep)
	s.workflowsHandler = NewWorkflowsHandler(deps, rep)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}

	// Operational
	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	// Filings
	route("POST /filings", "filings_submit", s.filingsHandler.HandleSubmit)
	route("GET /filings", "filings_list", s.filingsHandler.HandleList)
	route("GET /filings/{id}", "filings_get", s.filingsHandler.HandleGet)
	route("POST /filings/{id}/notes", "filings_notes", s.filingsHandler.HandleAddNote)
	route("POST /filings/{id}/start-outreach", "filings_start_outreach", s.filingsHandler.HandleStartOutreach)
	route("PUT /filings/{id}/outreach-status", "filings_outreach_status", s.filingsHandler.HandleSetOutreachStatus)

	// Consultant classification
	route("POST /filings/{id}/tag-consultant", "consultant_tag", s.consultantHandler.HandleTag)
	route("POST /filings/{id}/untag-consultant", "consultant_untag", s.consultantHandler.HandleUntag)
	route("POST /filings/{id}/tag-primary-consultant", "consultant_toggle_primary", s.consultantHandler.HandleTogglePrimary)
	route("POST /filings/{id}/tag-mail-consultant", "consultant_toggle_mail", s.consultantHandler.HandleToggleMail)
	route("GET /consultant-domains", "consultant_domains", s.consultantHandler.HandleDomains)

	// Workflows
	route("POST /filings/{id}/enrich", "workflow_enrich", s.workflowsHandler.HandleEnrich)
	route("POST /filings/{id}/outreach-draft", "workflow_draft", s.workflowsHandler.HandleDraft)

	// Providers
	route("GET /providers/{hcp}", "providers_get", s.providersHandler.HandleGet)
	route("PUT /providers/{hcp}/funding", "providers_funding", s.providersHandler.HandleSetFunding)

	// Upstream pull
	route("POST /ingest", "ingest", s.ingestHandler.HandleIngest)

	// Priority ranking
	route("GET /priority", "priority", s.priorityHandler.HandleTopN)
	route("GET /priority/{id}", "priority_rank", s.priorityHandler.HandleRank)

	// Groups
	route("POST /groups", "groups_create", s.groupsHandler.HandleCreate)
	route("GET /groups", "groups_list", s.groupsHandler.HandleList)
	route("GET /groups/{id}", "groups_get", s.groupsHandler.HandleGet)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// responder turns handler failures into error responses, logging the ones
// that are the server's fault.
type responder struct {
	logger logger.Logger
}

func (rp *responder) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		rp.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		err = Wrap(op, err)
	}
	writeError(w, status, code, err)
}
