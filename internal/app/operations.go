package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	jobqueue "github.com/okian/outreach/internal/adapters/mq/queue"
	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/internal/adapters/webhook"
	"github.com/okian/outreach/internal/domain/contact"
	"github.com/okian/outreach/internal/domain/funding"
	"github.com/okian/outreach/internal/domain/grouping"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/types"
	"github.com/okian/outreach/pkg/logger"
	"github.com/okian/outreach/pkg/metrics"
)

// TagResult is a manually tagged filing plus the siblings the tag spread to.
type TagResult struct {
	Filing   model.Filing `json:"filing"`
	Retagged []string     `json:"retagged_ids"`
}

// Filing returns a filing with its provider's funding history attached.
func (s *Service) Filing(ctx context.Context, id string) (model.Filing, error) {
	f, err := s.store.Filing(ctx, id)
	if err != nil {
		return model.Filing{}, err
	}
	if f.HistoricalFunding, err = s.store.ProviderFunding(ctx, f.HCPNumber); err != nil {
		return model.Filing{}, eris.Wrap(err, "load funding history")
	}
	return f, nil
}

// Filings lists one page of filings matching the filter. A zero limit
// selects the default page size; larger limits are capped.
func (s *Service) Filings(ctx context.Context, flt repository.Filter) (types.Page[model.Filing], error) {
	switch {
	case flt.Limit <= 0:
		flt.Limit = defaultListLimit
	case flt.Limit > s.maxListLimit:
		flt.Limit = s.maxListLimit
	}
	if flt.Offset < 0 {
		flt.Offset = 0
	}

	items, total, err := s.store.ListFilings(ctx, flt)
	if err != nil {
		return types.Page[model.Filing]{}, err
	}
	if items == nil {
		items = []model.Filing{}
	}
	return types.Page[model.Filing]{Items: items, Total: total, Limit: flt.Limit, Offset: flt.Offset}, nil
}

// Provider rolls up every filing of one provider.
func (s *Service) Provider(ctx context.Context, hcp string) (model.ProviderSummary, error) {
	fs, err := s.store.FilingsByProvider(ctx, hcp)
	if err != nil {
		return model.ProviderSummary{}, err
	}
	history, err := s.store.ProviderFunding(ctx, hcp)
	if err != nil {
		return model.ProviderSummary{}, eris.Wrap(err, "load funding history")
	}
	for i := range fs {
		fs[i].HistoricalFunding = history
	}
	sums := grouping.AggregateByProvider(fs)
	if len(sums) == 0 {
		return model.ProviderSummary{}, repository.ErrNotFound
	}
	return sums[0], nil
}

// SetProviderFunding replaces a provider's funding history and rescores its filings.
func (s *Service) SetProviderFunding(ctx context.Context, hcp string, years []model.FundingYear) error {
	if err := s.running(); err != nil {
		return err
	}
	if err := funding.Validate(years); err != nil {
		return err
	}
	if err := s.store.SetProviderFunding(ctx, hcp, years); err != nil {
		return err
	}
	s.scheduleRescore(ctx, jobqueue.RescoreProvider(hcp))
	return nil
}

// TagConsultant records a human decision that the filing is consultant-managed
// and spreads the tag to every filing whose mail contact shares the domain.
func (s *Service) TagConsultant(ctx context.Context, id, company string) (TagResult, error) {
	if err := s.running(); err != nil {
		return TagResult{}, err
	}
	f, err := s.store.Filing(ctx, id)
	if err != nil {
		return TagResult{}, err
	}

	tagged, bulk, err := contact.ManualTag(f, company)
	if err != nil {
		return TagResult{}, err
	}
	if err := s.rescoreInPlace(ctx, &tagged); err != nil {
		return TagResult{}, err
	}

	retagged, err := s.store.ApplyConsultantTag(ctx, tagged, bulk)
	if err != nil {
		return TagResult{}, err
	}

	metrics.RecordConsultantDetection(string(model.DetectionManualTagged))
	metrics.RecordBulkRetag(len(retagged))
	// The tagged filing's funding fields were derived before the write and
	// may predate history stored meanwhile.
	s.scheduleRescore(ctx, jobqueue.RescoreFiling(id))
	for _, sib := range retagged {
		s.scheduleRescore(ctx, jobqueue.RescoreFiling(sib))
	}

	s.logger.Info(ctx, "consultant tagged",
		logger.String("filing_id", id),
		logger.String("domain", bulk.Domain),
		logger.Int("retagged", len(retagged)),
	)
	if retagged == nil {
		retagged = []string{}
	}
	return TagResult{Filing: tagged, Retagged: retagged}, nil
}

// UntagConsultant clears the consultant classification of one filing and
// deactivates its domain in the registry. Siblings keep their tag.
func (s *Service) UntagConsultant(ctx context.Context, id string) (model.Filing, error) {
	if err := s.running(); err != nil {
		return model.Filing{}, err
	}
	f, err := s.store.Filing(ctx, id)
	if err != nil {
		return model.Filing{}, err
	}

	untagged, domain := contact.ManualUntag(f)
	if err := s.rescoreInPlace(ctx, &untagged); err != nil {
		return model.Filing{}, err
	}
	if err := s.store.ApplyConsultantUntag(ctx, untagged, domain); err != nil {
		return model.Filing{}, err
	}

	metrics.RecordConsultantDetection(string(model.DetectionManualUntagged))
	s.scheduleRescore(ctx, jobqueue.RescoreFiling(id))
	s.logger.Info(ctx, "consultant untagged", logger.String("filing_id", id), logger.String("domain", domain))
	return untagged, nil
}

// rescoreInPlace recomputes the derived fields of f, keeping its contact classification.
func (s *Service) rescoreInPlace(ctx context.Context, f *model.Filing) error {
	history, err := s.store.ProviderFunding(ctx, f.HCPNumber)
	if err != nil {
		return eris.Wrap(err, "load funding history")
	}
	s.engine.Rescore(f, history).Apply(f)
	f.HistoricalFunding = history
	return nil
}

// ToggleContactRole flips the consultant flag of one contact on a filing.
func (s *Service) ToggleContactRole(ctx context.Context, id string, role model.ContactRole) (model.Filing, error) {
	if err := s.running(); err != nil {
		return model.Filing{}, err
	}
	f, err := s.store.Filing(ctx, id)
	if err != nil {
		return model.Filing{}, err
	}
	toggled, err := contact.ToggleRole(f, role)
	if err != nil {
		return model.Filing{}, err
	}
	if err := s.store.SetContactFlags(ctx, id, toggled.ContactIsConsultant, toggled.MailContactIsConsultant); err != nil {
		return model.Filing{}, err
	}
	return toggled, nil
}

// AddNote appends a timestamped note to a filing.
func (s *Service) AddNote(ctx context.Context, id, text string) (model.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Note{}, ErrEmptyNote
	}
	n := model.Note{Timestamp: s.now(), Note: text}
	if err := s.store.AppendNote(ctx, id, n); err != nil {
		return model.Note{}, err
	}
	return n, nil
}

// StartOutreach marks a filing ready for the outreach workflow.
func (s *Service) StartOutreach(ctx context.Context, id string) error {
	return s.SetOutreachStatus(ctx, id, model.OutreachReadyForOutreach)
}

// SetOutreachStatus moves a filing to any known status.
func (s *Service) SetOutreachStatus(ctx context.Context, id string, status model.OutreachStatus) error {
	if !status.Valid() {
		return eris.Wrapf(ErrInvalidStatus, "%q", status)
	}
	return s.store.SetOutreachStatus(ctx, id, status)
}

// CreateGroup groups filings of one organization under a primary filing.
func (s *Service) CreateGroup(ctx context.Context, name, primaryID string, filingIDs []string) (model.Group, error) {
	members := make([]model.Filing, 0, len(filingIDs))
	histories := make(map[string][]model.FundingYear)
	for _, id := range filingIDs {
		f, err := s.store.Filing(ctx, id)
		if err != nil {
			return model.Group{}, eris.Wrapf(err, "group member %s", id)
		}
		history, ok := histories[f.HCPNumber]
		if !ok {
			if history, err = s.store.ProviderFunding(ctx, f.HCPNumber); err != nil {
				return model.Group{}, eris.Wrap(err, "load funding history")
			}
			histories[f.HCPNumber] = history
		}
		f.HistoricalFunding = history
		members = append(members, f)
	}

	g, err := grouping.NewGroup(name, primaryID, members)
	if err != nil {
		return model.Group{}, err
	}
	g.CreatedAt = s.now()
	return s.store.CreateGroup(ctx, g)
}

// Group returns one group.
func (s *Service) Group(ctx context.Context, id string) (model.Group, error) {
	return s.store.Group(ctx, id)
}

// Groups lists every group.
func (s *Service) Groups(ctx context.Context) ([]model.Group, error) {
	gs, err := s.store.Groups(ctx)
	if gs == nil && err == nil {
		gs = []model.Group{}
	}
	return gs, err
}

// ConsultantDomains lists the consultant domain registry.
func (s *Service) ConsultantDomains(ctx context.Context) ([]model.ConsultantDomain, error) {
	ds, err := s.store.ConsultantDomains(ctx)
	if ds == nil && err == nil {
		ds = []model.ConsultantDomain{}
	}
	return ds, err
}

// TopN returns the N highest-priority filings.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.store.TopN(ctx, n)
}

// Rank returns the priority position of one filing.
func (s *Service) Rank(ctx context.Context, id string) (types.Entry, error) {
	return s.store.Rank(ctx, id)
}

// TriggerEnrichment starts the enrichment workflow for a filing.
func (s *Service) TriggerEnrichment(ctx context.Context, id string) (json.RawMessage, error) {
	if s.workflows == nil {
		return nil, ErrNotConfigured
	}
	f, err := s.store.Filing(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.workflows.TriggerEnrichment(ctx, f.ID, f.HCPNumber, f.ClinicName)
}

// RequestOutreachDraft asks the outreach workflow to draft an email for a filing.
func (s *Service) RequestOutreachDraft(ctx context.Context, id, userID string) (webhook.Draft, error) {
	if s.workflows == nil {
		return webhook.Draft{}, ErrNotConfigured
	}
	if _, err := s.store.Filing(ctx, id); err != nil {
		return webhook.Draft{}, err
	}
	return s.workflows.RequestOutreachDraft(ctx, id, userID)
}
