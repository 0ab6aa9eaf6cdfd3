package api

import (
	"context"
	"net/http"
	"strconv"
)

// PriorityDependencies defines the interface for priority ranking operations.
type PriorityDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, id string) (Entry, error)
}

// PriorityHandler handles priority ranking requests.
type PriorityHandler struct {
	deps     PriorityDependencies
	maxLimit int
	rep      *responder
}

// NewPriorityHandler creates a new priority handler.
func NewPriorityHandler(deps PriorityDependencies, maxLimit int, rep *responder) *PriorityHandler {
	return &PriorityHandler{
		deps:     deps,
		maxLimit: maxLimit,
		rep:      rep,
	}
}

// HandleTopN handles GET /priority?limit=N requests.
func (h *PriorityHandler) HandleTopN(w http.ResponseWriter, r *http.Request) {
	const op = "api.priority_top"
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleRank handles GET /priority/{id} requests.
func (h *PriorityHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.priority_rank"
	entry, err := h.deps.Rank(r.Context(), r.PathValue("id"))
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
