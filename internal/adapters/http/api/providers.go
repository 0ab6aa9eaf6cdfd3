package api

import (
	"context"
	"net/http"

	"github.com/okian/outreach/internal/domain/model"
)

// ProviderDependencies defines per-provider operations.
type ProviderDependencies interface {
	Provider(ctx context.Context, hcp string) (model.ProviderSummary, error)
	SetProviderFunding(ctx context.Context, hcp string, years []model.FundingYear) error
}

// ProvidersHandler handles provider requests.
type ProvidersHandler struct {
	deps ProviderDependencies
	rep  *responder
}

// NewProvidersHandler creates a new providers handler.
func NewProvidersHandler(deps ProviderDependencies, rep *responder) *ProvidersHandler {
	return &ProvidersHandler{deps: deps, rep: rep}
}

// HandleGet handles GET /providers/{hcp} requests.
func (h *ProvidersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_provider"
	p, err := h.deps.Provider(r.Context(), r.PathValue("hcp"))
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type fundingRequest struct {
	HistoricalFunding []fundingYearRequest `json:"historical_funding" validate:"required,dive"`
}

// HandleSetFunding handles PUT /providers/{hcp}/funding requests. Filings of
// the provider are rescored asynchronously.
func (h *ProvidersHandler) HandleSetFunding(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_provider_funding"
	var req fundingRequest
	if err := decode(w, r, &req, false); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	hcp := r.PathValue("hcp")
	years := toFundingYears(req.HistoricalFunding)
	if err := h.deps.SetProviderFunding(r.Context(), hcp, years); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"hcp_number": hcp, "years": len(years)})
}
