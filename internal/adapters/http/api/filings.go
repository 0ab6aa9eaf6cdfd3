package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/outreach/internal/adapters/repository"
	service "github.com/okian/outreach/internal/app"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/types"
)

// FilingDependencies defines the filing operations the handlers need.
type FilingDependencies interface {
	Submit(ctx context.Context, f model.Filing) (service.SubmitResult, error)
	Filing(ctx context.Context, id string) (model.Filing, error)
	Filings(ctx context.Context, flt repository.Filter) (types.Page[model.Filing], error)
	AddNote(ctx context.Context, id, text string) (model.Note, error)
	StartOutreach(ctx context.Context, id string) error
	SetOutreachStatus(ctx context.Context, id string, status model.OutreachStatus) error
}

// FilingsHandler handles filing requests.
type FilingsHandler struct {
	deps FilingDependencies
	rep  *responder
}

// NewFilingsHandler creates a new filings handler.
func NewFilingsHandler(deps FilingDependencies, rep *responder) *FilingsHandler {
	return &FilingsHandler{deps: deps, rep: rep}
}

type fundingYearRequest struct {
	Year      int                      `json:"year" validate:"gte=0"`
	Amount    float64                  `json:"amount" validate:"gte=0"`
	Locations []fundingLocationRequest `json:"locations" validate:"omitempty,dive"`
}

type fundingLocationRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Amount  float64 `json:"amount" validate:"gte=0"`
}

func toFundingYears(in []fundingYearRequest) []model.FundingYear {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.FundingYear, len(in))
	for i, y := range in {
		out[i] = model.FundingYear{Year: y.Year, Amount: y.Amount}
		for _, l := range y.Locations {
			out[i].Locations = append(out[i].Locations, model.FundingLocation(l))
		}
	}
	return out
}

// filingRequest is the raw filing accepted by POST /filings.
type filingRequest struct {
	HCPNumber         string `json:"hcp_number" validate:"max=64"`
	ApplicationNumber string `json:"application_number" validate:"max=64"`
	ClinicName        string `json:"clinic_name" validate:"max=512"`

	Address string `json:"address" validate:"max=512"`
	City    string `json:"city"`
	State   string `json:"state" validate:"max=32"`
	Zip     string `json:"zip"`

	ContactName  string `json:"contact_name"`
	ContactTitle string `json:"contact_title"`
	ContactEmail string `json:"contact_email" validate:"max=320"`
	ContactPhone string `json:"contact_phone"`

	MailContactFirstName string `json:"mail_contact_first_name"`
	MailContactLastName  string `json:"mail_contact_last_name"`
	MailContactOrgName   string `json:"mail_contact_org_name"`
	MailContactEmail     string `json:"mail_contact_email" validate:"max=320"`
	MailContactPhone     string `json:"mail_contact_phone"`

	FilingDate                 string  `json:"filing_date"`
	PostingDate                string  `json:"posting_date"`
	AllowableContractStartDate string  `json:"allowable_contract_start_date"`
	FundingYear                string  `json:"funding_year"`
	ProgramType                string  `json:"program_type"`
	ApplicationType            string  `json:"application_type"`
	ServiceType                string  `json:"service_type"`
	DescriptionOfServices      string  `json:"description_of_services"`
	ContractLengthMonths       int     `json:"contract_length_months" validate:"gte=0"`
	BandwidthMbps              float64 `json:"bandwidth_mbps" validate:"gte=0"`
	PDFURL                     string  `json:"pdf_url"`

	HistoricalFunding []fundingYearRequest `json:"historical_funding" validate:"omitempty,dive"`
}

func (req *filingRequest) toFiling() model.Filing {
	return model.Filing{
		HCPNumber:                  req.HCPNumber,
		ApplicationNumber:          req.ApplicationNumber,
		ClinicName:                 req.ClinicName,
		Address:                    req.Address,
		City:                       req.City,
		State:                      req.State,
		Zip:                        req.Zip,
		ContactName:                req.ContactName,
		ContactTitle:               req.ContactTitle,
		ContactEmail:               req.ContactEmail,
		ContactPhone:               req.ContactPhone,
		MailContactFirstName:       req.MailContactFirstName,
		MailContactLastName:        req.MailContactLastName,
		MailContactOrgName:         req.MailContactOrgName,
		MailContactEmail:           req.MailContactEmail,
		MailContactPhone:           req.MailContactPhone,
		FilingDate:                 req.FilingDate,
		PostingDate:                req.PostingDate,
		AllowableContractStartDate: req.AllowableContractStartDate,
		FundingYear:                req.FundingYear,
		ProgramType:                req.ProgramType,
		ApplicationType:            req.ApplicationType,
		ServiceTypeRaw:             req.ServiceType,
		DescriptionOfServices:      req.DescriptionOfServices,
		ContractLengthMonths:       req.ContractLengthMonths,
		BandwidthMbps:              req.BandwidthMbps,
		PDFURL:                     req.PDFURL,
		HistoricalFunding:          toFundingYears(req.HistoricalFunding),
	}
}

// HandleSubmit handles POST /filings requests.
func (h *FilingsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_filing"
	var req filingRequest
	if err := decode(w, r, &req, false); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}

	res, err := h.deps.Submit(r.Context(), req.toFiling())
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	if res.Status == service.SubmitDuplicate {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// filingsQuery is the validated query string of GET /filings.
type filingsQuery struct {
	State          string `validate:"max=32"`
	Category       string `validate:"omitempty,oneof=voice data both_telecom_internet telecommunications_only other unknown"`
	Route          string `validate:"omitempty,oneof=route_a route_b route_c unassigned"`
	PriorityLabel  string `validate:"omitempty,oneof=High Medium Low"`
	OutreachStatus string `validate:"omitempty,oneof=pending ready_for_outreach outreach_sent follow_up completed"`
	From           string `validate:"omitempty,datetime=2006-01-02"`
	To             string `validate:"omitempty,datetime=2006-01-02"`
	Limit          int    `validate:"gte=0"`
	Offset         int    `validate:"gte=0"`
}

func parseFilter(r *http.Request) (repository.Filter, error) {
	q := r.URL.Query()
	fq := filingsQuery{
		State:          q.Get("state"),
		Category:       q.Get("category"),
		Route:          q.Get("route"),
		PriorityLabel:  q.Get("priority_label"),
		OutreachStatus: q.Get("outreach_status"),
		From:           q.Get("from"),
		To:             q.Get("to"),
	}
	var err error
	if fq.Limit, err = intParam(q.Get("limit")); err != nil {
		return repository.Filter{}, err
	}
	if fq.Offset, err = intParam(q.Get("offset")); err != nil {
		return repository.Filter{}, err
	}
	if err := validateStruct(&fq); err != nil {
		return repository.Filter{}, err
	}

	flt := repository.Filter{
		State:           fq.State,
		ServiceCategory: model.ServiceCategory(fq.Category),
		Route:           model.Route(fq.Route),
		PriorityLabel:   model.PriorityLabel(fq.PriorityLabel),
		OutreachStatus:  model.OutreachStatus(fq.OutreachStatus),
		HCPNumber:       q.Get("hcp_number"),
		FilingDateFrom:  fq.From,
		FilingDateTo:    fq.To,
		Search:          q.Get("search"),
		Limit:           fq.Limit,
		Offset:          fq.Offset,
	}
	if v := q.Get("consultant"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return repository.Filter{}, WrapKind("api.parse_filter", ErrBadRequest, err)
		}
		flt.Consultant = &b
	}
	return flt, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, WrapKind("api.parse_int", ErrBadRequest, err)
	}
	return n, nil
}

// HandleList handles GET /filings requests.
func (h *FilingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_filings"
	flt, err := parseFilter(r)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	page, err := h.deps.Filings(r.Context(), flt)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet handles GET /filings/{id} requests.
func (h *FilingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_filing"
	f, err := h.deps.Filing(r.Context(), r.PathValue("id"))
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type noteRequest struct {
	Note string `json:"note" validate:"required,max=4000"`
}

// HandleAddNote handles POST /filings/{id}/notes requests.
func (h *FilingsHandler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_note"
	var req noteRequest
	if err := decode(w, r, &req, false); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	n, err := h.deps.AddNote(r.Context(), r.PathValue("id"), req.Note)
	if err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

type statusResponse struct {
	ID             string               `json:"id"`
	OutreachStatus model.OutreachStatus `json:"outreach_status"`
}

// HandleStartOutreach handles POST /filings/{id}/start-outreach requests.
func (h *FilingsHandler) HandleStartOutreach(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_outreach"
	id := r.PathValue("id")
	if err := h.deps.StartOutreach(r.Context(), id); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ID: id, OutreachStatus: model.OutreachReadyForOutreach})
}

type outreachStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleSetOutreachStatus handles PUT /filings/{id}/outreach-status requests.
func (h *FilingsHandler) HandleSetOutreachStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_outreach_status"
	var req outreachStatusRequest
	if err := decode(w, r, &req, false); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	id := r.PathValue("id")
	status := model.OutreachStatus(req.Status)
	if err := h.deps.SetOutreachStatus(r.Context(), id, status); err != nil {
		h.rep.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ID: id, OutreachStatus: status})
}
