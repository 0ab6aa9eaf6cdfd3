package api

import (
	"context"
	"net/http"
	"time"

	service "github.com/okian/outreach/internal/app"
)

const dateLayout = "2006-01-02"

// IngestDependencies defines the upstream pull operation.
type IngestDependencies interface {
	IngestRange(ctx context.Context, from, to time.Time) (service.IngestSummary, error)
}

// IngestHandler handles upstream pull requests.
type IngestHandler struct {
	deps IngestDependencies
	rep  *responder
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(deps IngestDependencies, rep *responder) *IngestHandler {
	return &IngestHandler{deps: deps, rep: rep}
}

// ingestRequest selects filings by posting date. Without end_date only
// filings posted on start_date are pulled.
type ingestRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// HandleIngest handles POST /ingest requests. The pull runs synchronously
// and answers with the submission counts; classification happens in the
// background.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest"
	var req ingestRequest
	if err := decode(w, r, &req, false); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}

	from, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.rep.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	var to time.Time
	if req.EndDate != "" {
		if to, err = time.Parse(dateLayout, req.EndDate); err != nil {
			h.rep.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	sum, err := h.deps.IngestRange(r.Context(), from, to)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
