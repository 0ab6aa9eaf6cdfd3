package api

import (
	"context"
	"net/http"

	service "github.com/okian/outreach/internal/app"
	"github.com/okian/outreach/internal/domain/model"
)

// ConsultantDependencies defines the consultant classification operations.
type ConsultantDependencies interface {
	TagConsultant(ctx context.Context, id, company string) (service.TagResult, error)
	UntagConsultant(ctx context.Context, id string) (model.Filing, error)
	ToggleContactRole(ctx context.Context, id string, role model.ContactRole) (model.Filing, error)
	ConsultantDomains(ctx context.Context) ([]model.ConsultantDomain, error)
}

// ConsultantHandler handles manual consultant classification requests.
type ConsultantHandler struct {
	deps ConsultantDependencies
	rep  *responder
}

// NewConsultantHandler creates a new consultant handler.
func NewConsultantHandler(deps ConsultantDependencies, rep *responder) *ConsultantHandler {
	return &ConsultantHandler{deps: deps, rep: rep}
}

type tagRequest struct {
	Company string `json:"consultant_company" validate:"max=256"`
}

// HandleTag handles POST /filings/{id}/tag-consultant requests. The body is optional.
func (h *ConsultantHandler) HandleTag(w http.ResponseWriter, r *http.Request) {
	const op = "api.tag_consultant"
	var req tagRequest
	if err := decode(w, r, &req, true); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	res, err := h.deps.TagConsultant(r.Context(), r.PathValue("id"), req.Company)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleUntag handles POST /filings/{id}/untag-consultant requests.
func (h *ConsultantHandler) HandleUntag(w http.ResponseWriter, r *http.Request) {
	const op = "api.untag_consultant"
	f, err := h.deps.UntagConsultant(r.Context(), r.PathValue("id"))
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleTogglePrimary handles POST /filings/{id}/tag-primary-consultant requests.
func (h *ConsultantHandler) HandleTogglePrimary(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "api.toggle_primary_consultant", model.ContactPrimary)
}

// HandleToggleMail handles POST /filings/{id}/tag-mail-consultant requests.
func (h *ConsultantHandler) HandleToggleMail(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "api.toggle_mail_consultant", model.ContactMail)
}

func (h *ConsultantHandler) toggle(w http.ResponseWriter, r *http.Request, op string, role model.ContactRole) {
	f, err := h.deps.ToggleContactRole(r.Context(), r.PathValue("id"), role)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleDomains handles GET /consultant-domains requests.
func (h *ConsultantHandler) HandleDomains(w http.ResponseWriter, r *http.Request) {
	const op = "api.consultant_domains"
	ds, err := h.deps.ConsultantDomains(r.Context())
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}
