// Package pipeline runs the classification stages for a filing in order:
// dedup key, contact, service category, funding, priority, route.
package pipeline

import (
	"github.com/okian/outreach/internal/domain/category"
	"github.com/okian/outreach/internal/domain/contact"
	"github.com/okian/outreach/internal/domain/dedupe"
	"github.com/okian/outreach/internal/domain/funding"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/routing"
	"github.com/okian/outreach/internal/domain/scoring"
)

// Result is everything the engine derives for one filing.
type Result struct {
	DedupHash      string
	Classification model.Classification
	Funding        funding.Summary
}

// Apply writes the derived fields onto the filing.
func (r Result) Apply(f *model.Filing) {
	f.DedupHash = r.DedupHash
	f.Classification = r.Classification
}

// Engine is stateless and safe for concurrent use.
type Engine struct{}

// New returns an Engine.
func New() *Engine { return &Engine{} }

// Classify derives every field from scratch, including the contact classification.
func (e *Engine) Classify(f *model.Filing, history []model.FundingYear) Result {
	c := contact.Classify(f.ContactEmail, f.MailContactEmail, f.MailContactOrgName)
	return e.run(f, c, history)
}

// Rescore recomputes service, funding, priority and route but keeps the
// contact classification already on the filing, so manual tags survive
// the arrival of new funding data.
func (e *Engine) Rescore(f *model.Filing, history []model.FundingYear) Result {
	return e.run(f, contact.FromFiling(f), history)
}

func (e *Engine) run(f *model.Filing, c contact.Result, history []model.FundingYear) Result {
	var out model.Classification
	c.Apply(&out)

	out.ServiceCategory = category.Classify(f.ServiceTypeRaw)

	sum := funding.Aggregate(history)
	sum.Apply(&out)

	scoring.Score(scoring.Input{
		TotalFunding:     sum.Total,
		YearsWithFunding: sum.YearsWithFunding,
		ServiceCategory:  out.ServiceCategory,
		IsConsultant:     out.IsConsultant,
		HasHistory:       sum.HasHistory,
	}).Apply(&out)

	routing.Assign(routing.Input{
		IsConsultant:     out.IsConsultant,
		ServiceCategory:  out.ServiceCategory,
		FundingThreshold: out.FundingThreshold,
		TotalFunding:     out.Total3yrFunding,
	}).Apply(&out)

	return Result{
		DedupHash:      dedupe.Key(f.HCPNumber, f.FilingDate, f.ClinicName, f.Address),
		Classification: out,
		Funding:        sum,
	}
}
