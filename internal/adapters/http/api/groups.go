package api

import (
	"context"
	"net/http"

	"github.com/okian/outreach/internal/domain/model"
)

// GroupDependencies defines filing group operations.
type GroupDependencies interface {
	CreateGroup(ctx context.Context, name, primaryID string, filingIDs []string) (model.Group, error)
	Group(ctx context.Context, id string) (model.Group, error)
	Groups(ctx context.Context) ([]model.Group, error)
}

// GroupsHandler handles group requests.
type GroupsHandler struct {
	deps GroupDependencies
	rep  *responder
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps GroupDependencies, rep *responder) *GroupsHandler {
	return &GroupsHandler{deps: deps, rep: rep}
}

type groupRequest struct {
	Name            string   `json:"group_name" validate:"required,max=256"`
	PrimaryFilingID string   `json:"primary_clinic_id" validate:"required"`
	FilingIDs       []string `json:"clinic_ids" validate:"required,min=2,dive,required"`
}

// HandleCreate handles POST /groups requests.
func (h *GroupsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_group"
	var req groupRequest
	if err := decode(w, r, &req, false); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	g, err := h.deps.CreateGroup(r.Context(), req.Name, req.PrimaryFilingID, req.FilingIDs)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// HandleList handles GET /groups requests.
func (h *GroupsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_groups"
	gs, err := h.deps.Groups(r.Context())
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

// HandleGet handles GET /groups/{id} requests.
func (h *GroupsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_group"
	g, err := h.deps.Group(r.Context(), r.PathValue("id"))
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
