package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/outreach/internal/adapters/http/api"
	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/internal/adapters/webhook"
	service "github.com/okian/outreach/internal/app"
	"github.com/okian/outreach/internal/domain/dedupe"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps records the calls the handlers make and answers from its fields.
type mockDeps struct {
	submitted  []model.Filing
	submitRes  service.SubmitResult
	submitErr  error
	filing     model.Filing
	filingErr  error
	filter     repository.Filter
	notes      []string
	status     model.OutreachStatus
	statusErr  error
	tagCompany string
	toggled    model.ContactRole
	funding    []model.FundingYear
	fundingErr error
	group      model.Group
	groupErr   error
	from, to   time.Time
	ingestErr  error
	topN       []types.Entry
	rank       types.Entry
	rankErr    error
	draftErr   error
}

func (m *mockDeps) Submit(_ context.Context, f model.Filing) (service.SubmitResult, error) {
	m.submitted = append(m.submitted, f)
	return m.submitRes, m.submitErr
}

func (m *mockDeps) Filing(_ context.Context, id string) (model.Filing, error) {
	if m.filingErr != nil {
		return model.Filing{}, m.filingErr
	}
	f := m.filing
	f.ID = id
	return f, nil
}

func (m *mockDeps) Filings(_ context.Context, flt repository.Filter) (types.Page[model.Filing], error) {
	m.filter = flt
	return types.Page[model.Filing]{Items: []model.Filing{m.filing}, Total: 1, Limit: flt.Limit}, nil
}

func (m *mockDeps) AddNote(_ context.Context, _, text string) (model.Note, error) {
	if strings.TrimSpace(text) == "" {
		return model.Note{}, service.ErrEmptyNote
	}
	m.notes = append(m.notes, text)
	return model.Note{Note: text}, nil
}

func (m *mockDeps) StartOutreach(_ context.Context, _ string) error {
	m.status = model.OutreachReadyForOutreach
	return m.statusErr
}

func (m *mockDeps) SetOutreachStatus(_ context.Context, _ string, s model.OutreachStatus) error {
	if !s.Valid() {
		return service.ErrInvalidStatus
	}
	m.status = s
	return m.statusErr
}

func (m *mockDeps) TagConsultant(_ context.Context, id, company string) (service.TagResult, error) {
	m.tagCompany = company
	return service.TagResult{Filing: model.Filing{ID: id}, Retagged: []string{"sib-1"}}, nil
}

func (m *mockDeps) UntagConsultant(_ context.Context, id string) (model.Filing, error) {
	return model.Filing{ID: id}, nil
}

func (m *mockDeps) ToggleContactRole(_ context.Context, id string, role model.ContactRole) (model.Filing, error) {
	m.toggled = role
	return model.Filing{ID: id, MailContactIsConsultant: role == model.ContactMail}, nil
}

func (m *mockDeps) ConsultantDomains(context.Context) ([]model.ConsultantDomain, error) {
	return []model.ConsultantDomain{{Domain: "consult.com", IsActive: true}}, nil
}

func (m *mockDeps) Provider(_ context.Context, hcp string) (model.ProviderSummary, error) {
	if hcp == "missing" {
		return model.ProviderSummary{}, repository.ErrNotFound
	}
	return model.ProviderSummary{HCPNumber: hcp, ApplicationCount: 2}, nil
}

func (m *mockDeps) SetProviderFunding(_ context.Context, _ string, years []model.FundingYear) error {
	m.funding = years
	return m.fundingErr
}

func (m *mockDeps) CreateGroup(_ context.Context, name, primaryID string, ids []string) (model.Group, error) {
	if m.groupErr != nil {
		return model.Group{}, m.groupErr
	}
	return model.Group{ID: "g-1", Name: name, PrimaryFilingID: primaryID, FilingIDs: ids}, nil
}

func (m *mockDeps) Group(_ context.Context, id string) (model.Group, error) {
	if id != m.group.ID {
		return model.Group{}, repository.ErrNotFound
	}
	return m.group, nil
}

func (m *mockDeps) Groups(context.Context) ([]model.Group, error) {
	return []model.Group{m.group}, nil
}

func (m *mockDeps) IngestRange(_ context.Context, from, to time.Time) (service.IngestSummary, error) {
	m.from, m.to = from, to
	return service.IngestSummary{TotalFetched: 3, Inserted: 2, Skipped: 1}, m.ingestErr
}

func (m *mockDeps) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDeps) Rank(_ context.Context, _ string) (types.Entry, error) {
	return m.rank, m.rankErr
}

func (m *mockDeps) TriggerEnrichment(_ context.Context, _ string) (json.RawMessage, error) {
	return json.RawMessage(`{"status":"started"}`), nil
}

func (m *mockDeps) RequestOutreachDraft(_ context.Context, id, _ string) (webhook.Draft, error) {
	return webhook.Draft{Success: true, DraftID: "d-" + id}, m.draftErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDeps) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var resp struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Code
}

func TestServer_Operational(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Then health answers ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
			So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
		})

		Convey("And a caller's request id is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			req.Header.Set("X-Request-ID", "req-42")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Header().Get("X-Request-ID"), ShouldEqual, "req-42")
		})

		Convey("And metrics are exposed", func() {
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And unknown paths are not found", func() {
			w := do(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods are rejected", func() {
			w := do(mux, http.MethodDelete, "/filings", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_SubmitFiling(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{submitRes: service.SubmitResult{Status: service.SubmitAccepted, DedupHash: "abc"}}
		mux := newMux(deps)

		body := `{"hcp_number":"H1","clinic_name":"North","filing_date":"2025-01-15",
			"service_type":"Voice","mail_contact_email":"ops@consult.com",
			"historical_funding":[{"year":2024,"amount":1000}]}`

		Convey("When a new filing is posted", func() {
			w := do(mux, http.MethodPost, "/filings", body)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"dedup_hash":"abc"`)
				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].ServiceTypeRaw, ShouldEqual, "Voice")
				So(deps.submitted[0].HistoricalFunding, ShouldResemble, []model.FundingYear{{Year: 2024, Amount: 1000}})
			})
		})

		Convey("When the filing is a duplicate", func() {
			deps.submitRes.Status = service.SubmitDuplicate
			w := do(mux, http.MethodPost, "/filings", body)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate"`)
		})

		Convey("When the queue is full", func() {
			deps.submitErr = service.ErrQueueFull
			w := do(mux, http.MethodPost, "/filings", body)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(w), ShouldEqual, "backpressure")
		})

		Convey("When the key inputs are all empty", func() {
			deps.submitErr = dedupe.ErrEmptyKeyInputs
			w := do(mux, http.MethodPost, "/filings", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When funding is negative", func() {
			w := do(mux, http.MethodPost, "/filings", `{"hcp_number":"H1","historical_funding":[{"year":2024,"amount":-1}]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "amount")
			So(deps.submitted, ShouldBeEmpty)
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/filings", `not json`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
		})

		Convey("When the service is not running", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/filings", body)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestServer_Filings(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{filing: model.Filing{ClinicName: "North"}}
		mux := newMux(deps)

		Convey("When filings are listed with filters", func() {
			w := do(mux, http.MethodGet, "/filings?state=AK&category=voice&consultant=true&route=route_a&limit=10&offset=5&from=2025-01-01", "")

			Convey("Then the filter reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.filter.State, ShouldEqual, "AK")
				So(deps.filter.ServiceCategory, ShouldEqual, model.ServiceVoice)
				So(*deps.filter.Consultant, ShouldBeTrue)
				So(deps.filter.Route, ShouldEqual, model.RouteA)
				So(deps.filter.Limit, ShouldEqual, 10)
				So(deps.filter.Offset, ShouldEqual, 5)
				So(deps.filter.FilingDateFrom, ShouldEqual, "2025-01-01")
			})
		})

		Convey("When a filter value is invalid", func() {
			So(do(mux, http.MethodGet, "/filings?category=fax", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/filings?consultant=maybe", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/filings?limit=-1", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/filings?from=01/02/2025", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When one filing is read", func() {
			w := do(mux, http.MethodGet, "/filings/f-1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"id":"f-1"`)
		})

		Convey("When the filing is unknown", func() {
			deps.filingErr = repository.ErrNotFound
			w := do(mux, http.MethodGet, "/filings/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("When a note is added", func() {
			w := do(mux, http.MethodPost, "/filings/f-1/notes", `{"note":"left voicemail"}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(deps.notes, ShouldResemble, []string{"left voicemail"})
		})

		Convey("When a blank note is added", func() {
			So(do(mux, http.MethodPost, "/filings/f-1/notes", `{"note":""}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/filings/f-1/notes", `{"note":"  "}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When outreach starts", func() {
			w := do(mux, http.MethodPost, "/filings/f-1/start-outreach", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "ready_for_outreach")
		})

		Convey("When the outreach status is set", func() {
			w := do(mux, http.MethodPut, "/filings/f-1/outreach-status", `{"status":"follow_up"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.status, ShouldEqual, model.OutreachFollowUp)
		})

		Convey("When the outreach status is unknown", func() {
			w := do(mux, http.MethodPut, "/filings/f-1/outreach-status", `{"status":"archived"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_Consultants(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When a filing is tagged with a company", func() {
			w := do(mux, http.MethodPost, "/filings/f-1/tag-consultant", `{"consultant_company":"Acme"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.tagCompany, ShouldEqual, "Acme")
			So(w.Body.String(), ShouldContainSubstring, `"retagged_ids":["sib-1"]`)
		})

		Convey("When a filing is tagged without a body", func() {
			w := do(mux, http.MethodPost, "/filings/f-1/tag-consultant", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.tagCompany, ShouldBeEmpty)
		})

		Convey("When a filing is untagged", func() {
			w := do(mux, http.MethodPost, "/filings/f-1/untag-consultant", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When contact roles are toggled", func() {
			So(do(mux, http.MethodPost, "/filings/f-1/tag-primary-consultant", "").Code, ShouldEqual, http.StatusOK)
			So(deps.toggled, ShouldEqual, model.ContactPrimary)
			So(do(mux, http.MethodPost, "/filings/f-1/tag-mail-consultant", "").Code, ShouldEqual, http.StatusOK)
			So(deps.toggled, ShouldEqual, model.ContactMail)
		})

		Convey("When consultant domains are listed", func() {
			w := do(mux, http.MethodGet, "/consultant-domains", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "consult.com")
		})
	})
}

func TestServer_ProvidersAndGroups(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{group: model.Group{ID: "g-1", Name: "Network"}}
		mux := newMux(deps)

		Convey("When a provider is read", func() {
			w := do(mux, http.MethodGet, "/providers/H1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"application_count":2`)
			So(do(mux, http.MethodGet, "/providers/missing", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When provider funding is replaced", func() {
			w := do(mux, http.MethodPut, "/providers/H1/funding", `{"historical_funding":[{"year":2024,"amount":5000},{"year":2023,"amount":0}]}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.funding, ShouldHaveLength, 2)
		})

		Convey("When provider funding is missing or negative", func() {
			So(do(mux, http.MethodPut, "/providers/H1/funding", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPut, "/providers/H1/funding", `{"historical_funding":[{"year":2024,"amount":-5}]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a group is created", func() {
			w := do(mux, http.MethodPost, "/groups", `{"group_name":"Network","primary_clinic_id":"a","clinic_ids":["a","b"]}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(w.Body.String(), ShouldContainSubstring, `"id":"g-1"`)
		})

		Convey("When a group has too few members", func() {
			w := do(mux, http.MethodPost, "/groups", `{"group_name":"Solo","primary_clinic_id":"a","clinic_ids":["a"]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a group member is unknown", func() {
			deps.groupErr = repository.ErrNotFound
			w := do(mux, http.MethodPost, "/groups", `{"group_name":"Ghost","primary_clinic_id":"a","clinic_ids":["a","x"]}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When groups are read", func() {
			So(do(mux, http.MethodGet, "/groups", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/groups/g-1", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/groups/g-2", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_IngestAndWorkflows(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When a date range is ingested", func() {
			w := do(mux, http.MethodPost, "/ingest", `{"start_date":"2025-01-01","end_date":"2025-01-31"}`)

			Convey("Then the range reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"total_fetched":3`)
				So(deps.from.Format("2006-01-02"), ShouldEqual, "2025-01-01")
				So(deps.to.Format("2006-01-02"), ShouldEqual, "2025-01-31")
			})
		})

		Convey("When only a start date is given", func() {
			w := do(mux, http.MethodPost, "/ingest", `{"start_date":"2025-01-01"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.to.IsZero(), ShouldBeTrue)
		})

		Convey("When the start date is malformed", func() {
			So(do(mux, http.MethodPost, "/ingest", `{"start_date":"yesterday"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/ingest", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the upstream source is not configured", func() {
			deps.ingestErr = service.ErrNotConfigured
			w := do(mux, http.MethodPost, "/ingest", `{"start_date":"2025-01-01"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(errorCode(w), ShouldEqual, "not_configured")
		})

		Convey("When enrichment is triggered", func() {
			w := do(mux, http.MethodPost, "/filings/f-1/enrich", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "started")
		})

		Convey("When a draft is requested", func() {
			w := do(mux, http.MethodPost, "/filings/f-1/outreach-draft", `{"user_id":"u1"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"d-f-1"`)
		})

		Convey("When a draft request has no user", func() {
			So(do(mux, http.MethodPost, "/filings/f-1/outreach-draft", `{}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the workflow fails", func() {
			deps.draftErr = webhook.ErrWorkflowFailed
			w := do(mux, http.MethodPost, "/filings/f-1/outreach-draft", `{"user_id":"u1"}`)
			So(w.Code, ShouldEqual, http.StatusBadGateway)
		})
	})
}

func TestServer_Priority(t *testing.T) {
	Convey("Given a registered API server with ranked filings", t, func() {
		deps := &mockDeps{
			topN: []types.Entry{
				{Rank: 1, FilingID: "a", Score: 90},
				{Rank: 2, FilingID: "b", Score: 70},
			},
			rank: types.Entry{Rank: 2, FilingID: "b", Score: 70},
		}
		mux := newMux(deps)

		Convey("When the top filings are requested", func() {
			w := do(mux, http.MethodGet, "/priority?limit=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var entries []types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
			So(entries[0].FilingID, ShouldEqual, "a")
		})

		Convey("When the limit is invalid or too large", func() {
			So(do(mux, http.MethodGet, "/priority", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/priority?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			w := do(mux, http.MethodGet, "/priority?limit=1000", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "limit_exceeded")
		})

		Convey("When one rank is requested", func() {
			w := do(mux, http.MethodGet, "/priority/b", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"rank":2`)
		})

		Convey("When the rank lookup fails unexpectedly", func() {
			deps.rankErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/priority/b", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}
