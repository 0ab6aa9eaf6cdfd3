package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/outreach/internal/adapters/webhook"
)

// WorkflowDependencies defines the automation workflow triggers.
type WorkflowDependencies interface {
	TriggerEnrichment(ctx context.Context, id string) (json.RawMessage, error)
	RequestOutreachDraft(ctx context.Context, id, userID string) (webhook.Draft, error)
}

// WorkflowsHandler handles workflow trigger requests.
type WorkflowsHandler struct {
	deps WorkflowDependencies
	rep  *responder
}

// NewWorkflowsHandler creates a new workflows handler.
func NewWorkflowsHandler(deps WorkflowDependencies, rep *responder) *WorkflowsHandler {
	return &WorkflowsHandler{deps: deps, rep: rep}
}

// HandleEnrich handles POST /filings/{id}/enrich requests and relays the
// workflow's answer as is.
func (h *WorkflowsHandler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	const op = "api.enrich"
	out, err := h.deps.TriggerEnrichment(r.Context(), r.PathValue("id"))
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type draftRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}

// HandleDraft handles POST /filings/{id}/outreach-draft requests.
func (h *WorkflowsHandler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	const op = "api.outreach_draft"
	var req draftRequest
	if err := decode(w, r, &req, false); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	d, err := h.deps.RequestOutreachDraft(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
