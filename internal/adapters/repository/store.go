// Package repository persists filings, provider funding history, consultant
// domains and groups, and answers priority ranking queries.
package repository

import (
	"context"

	"github.com/okian/outreach/internal/domain/contact"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/types"
)

// Filter narrows ListFilings. Zero fields match everything.
type Filter struct {
	State           string
	ServiceCategory model.ServiceCategory
	Consultant      *bool
	Route           model.Route
	PriorityLabel   model.PriorityLabel
	OutreachStatus  model.OutreachStatus
	HCPNumber       string
	// FilingDateFrom and FilingDateTo are inclusive ISO dates compared as text.
	FilingDateFrom string
	FilingDateTo   string
	// Search matches clinic name, HCP number or application number, case-insensitively.
	Search string

	Limit  int
	Offset int
}

// Deriver computes a filing's classification from its stored state and the
// provider's funding history, newest year first.
type Deriver func(f *model.Filing, history []model.FundingYear) model.Classification

// Store provides read/write access to the outreach state.
type Store interface {
	// InsertFiling stores a new filing. It assigns an ID and timestamps when
	// missing and returns ErrDuplicate when the dedup hash is already stored.
	InsertFiling(ctx context.Context, f model.Filing) (model.Filing, error)
	// Filing returns ErrNotFound if the id is unknown.
	Filing(ctx context.Context, id string) (model.Filing, error)
	FilingByHash(ctx context.Context, hash string) (model.Filing, error)
	// ListFilings returns one page ordered by priority score desc, then id,
	// plus the number of filings matching the filter.
	ListFilings(ctx context.Context, f Filter) ([]model.Filing, int, error)
	FilingsByProvider(ctx context.Context, hcpNumber string) ([]model.Filing, error)
	// Reclassify reads a filing and its provider's funding history, derives
	// a classification and saves it when it differs, as one step. Manual
	// edits committed meanwhile are never overwritten with a stale copy.
	// derive runs while the filing is locked and must not call the store.
	Reclassify(ctx context.Context, id string, derive Deriver) (model.Filing, bool, error)

	// SetProviderFunding replaces the funding history of a provider.
	SetProviderFunding(ctx context.Context, hcpNumber string, years []model.FundingYear) error
	// ProviderFunding returns the stored history newest year first.
	ProviderFunding(ctx context.Context, hcpNumber string) ([]model.FundingYear, error)

	// ApplyConsultantTag saves the tagged filing's classification, retags
	// every sibling the bulk retag matches and upserts the domain registry,
	// all or nothing. It returns the ids of the retagged siblings.
	ApplyConsultantTag(ctx context.Context, tagged model.Filing, bulk contact.BulkRetag) ([]string, error)
	// ApplyConsultantUntag saves the untagged filing's classification and
	// deactivates the registry entry for domain when present.
	ApplyConsultantUntag(ctx context.Context, untagged model.Filing, domain string) error

	SetContactFlags(ctx context.Context, id string, primary, mail bool) error
	AppendNote(ctx context.Context, id string, note model.Note) error
	SetOutreachStatus(ctx context.Context, id string, status model.OutreachStatus) error

	// CreateGroup stores the group, assigning an ID when missing, and points
	// every member at it. Returns ErrNotFound if a member is unknown.
	CreateGroup(ctx context.Context, g model.Group) (model.Group, error)
	Group(ctx context.Context, id string) (model.Group, error)
	Groups(ctx context.Context) ([]model.Group, error)

	ConsultantDomains(ctx context.Context) ([]model.ConsultantDomain, error)

	// TopN returns the top-N filings ordered by priority score desc, then id.
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	// Rank returns the position of a filing in that order.
	// Returns ErrNotFound if the filing is unknown.
	Rank(ctx context.Context, id string) (types.Entry, error)
	// Count returns the number of stored filings.
	Count(ctx context.Context) (int, error)

	Close() error
}
