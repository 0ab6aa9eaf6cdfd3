package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/outreach/internal/domain/contact"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/types"
	"github.com/okian/outreach/pkg/metrics"
)

// MemoryStore is an in-process Store. Filings live in maps; the priority
// order is kept in a treap so TopN and Rank stay O(log n).
type MemoryStore struct {
	mu      sync.RWMutex
	filings map[string]model.Filing
	byHash  map[string]string
	funding map[string][]model.FundingYear
	domains map[string]model.ConsultantDomain
	groups  map[string]model.Group
	index   priorityIndex

	now                   func() time.Time
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		filings:               make(map[string]model.Filing),
		byHash:                make(map[string]string),
		funding:               make(map[string][]model.FundingYear),
		domains:               make(map[string]model.ConsultantDomain),
		groups:                make(map[string]model.Group),
		now:                   func() time.Time { return time.Now().UTC() },
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) InsertFiling(_ context.Context, f model.Filing) (model.Filing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[f.DedupHash]; ok {
		return model.Filing{}, ErrDuplicate
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	} else if _, ok := s.filings[f.ID]; ok {
		return model.Filing{}, ErrDuplicate
	}
	now := s.now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.OutreachStatus == "" {
		f.OutreachStatus = model.OutreachPending
	}
	f.HistoricalFunding = nil
	f = cloneFiling(f)

	s.filings[f.ID] = f
	s.byHash[f.DedupHash] = f.ID
	s.index.upsert(f.ID, 0, f.PriorityScore, false)
	return cloneFiling(f), nil
}

func (s *MemoryStore) Filing(_ context.Context, id string) (model.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filings[id]
	if !ok {
		return model.Filing{}, ErrNotFound
	}
	return cloneFiling(f), nil
}

func (s *MemoryStore) FilingByHash(_ context.Context, hash string) (model.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return model.Filing{}, ErrNotFound
	}
	return cloneFiling(s.filings[id]), nil
}

func (s *MemoryStore) ListFilings(_ context.Context, flt Filter) ([]model.Filing, int, error) {
	if flt.Limit < 1 || flt.Offset < 0 {
		return nil, 0, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// The treap already yields priority order, so a full walk is sorted.
	ordered := s.index.top(s.index.size())
	var (
		out   = make([]model.Filing, 0, min(flt.Limit, len(ordered)))
		total int
	)
	for _, id := range ordered {
		f := s.filings[id]
		if !matches(&f, &flt) {
			continue
		}
		if total >= flt.Offset && len(out) < flt.Limit {
			out = append(out, cloneFiling(f))
		}
		total++
	}
	return out, total, nil
}

func (s *MemoryStore) FilingsByProvider(_ context.Context, hcpNumber string) ([]model.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Filing
	for _, f := range s.filings {
		if f.HCPNumber == hcpNumber {
			out = append(out, cloneFiling(f))
		}
	}
	slices.SortFunc(out, func(a, b model.Filing) int {
		if c := strings.Compare(a.FilingDate, b.FilingDate); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) Reclassify(_ context.Context, id string, derive Deriver) (model.Filing, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.filings[id]
	if !ok {
		return model.Filing{}, false, ErrNotFound
	}
	cur := cloneFiling(f)
	c := derive(&cur, cloneFunding(s.funding[f.HCPNumber]))
	if c == f.Classification {
		return cloneFiling(f), false, nil
	}
	if err := s.saveClassificationLocked(id, c); err != nil {
		return model.Filing{}, false, err
	}
	return cloneFiling(s.filings[id]), true, nil
}

func (s *MemoryStore) saveClassificationLocked(id string, c model.Classification) error {
	f, ok := s.filings[id]
	if !ok {
		return ErrNotFound
	}
	s.index.upsert(id, f.PriorityScore, c.PriorityScore, true)
	f.Classification = c
	f.UpdatedAt = s.now()
	s.filings[id] = f
	return nil
}

func (s *MemoryStore) SetProviderFunding(_ context.Context, hcpNumber string, years []model.FundingYear) error {
	sorted := cloneFunding(years)
	slices.SortStableFunc(sorted, func(a, b model.FundingYear) int { return b.Year - a.Year })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.funding[hcpNumber] = sorted
	return nil
}

func (s *MemoryStore) ProviderFunding(_ context.Context, hcpNumber string) ([]model.FundingYear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFunding(s.funding[hcpNumber]), nil
}

func (s *MemoryStore) ApplyConsultantTag(_ context.Context, tagged model.Filing, bulk contact.BulkRetag) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveClassificationLocked(tagged.ID, tagged.Classification); err != nil {
		return nil, err
	}
	now := s.now()
	var retagged []string
	for id, f := range s.filings {
		updated, ok := bulk.Sibling(f)
		if !ok {
			continue
		}
		updated.UpdatedAt = now
		s.filings[id] = updated
		retagged = append(retagged, id)
	}
	slices.Sort(retagged)

	entry := bulk.Registry()
	entry.UpdatedAt = now
	s.domains[entry.Domain] = entry
	return retagged, nil
}

func (s *MemoryStore) ApplyConsultantUntag(_ context.Context, untagged model.Filing, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveClassificationLocked(untagged.ID, untagged.Classification); err != nil {
		return err
	}
	if d, ok := s.domains[domain]; ok {
		d.IsActive = false
		d.Notes = deactivatedNote
		d.UpdatedAt = s.now()
		s.domains[domain] = d
	}
	return nil
}

func (s *MemoryStore) SetContactFlags(_ context.Context, id string, primary, mail bool) error {
	return s.update(id, func(f *model.Filing) {
		f.ContactIsConsultant = primary
		f.MailContactIsConsultant = mail
	})
}

func (s *MemoryStore) AppendNote(_ context.Context, id string, note model.Note) error {
	return s.update(id, func(f *model.Filing) {
		f.Notes = append(f.Notes, note)
	})
}

func (s *MemoryStore) SetOutreachStatus(_ context.Context, id string, status model.OutreachStatus) error {
	return s.update(id, func(f *model.Filing) {
		f.OutreachStatus = status
	})
}

func (s *MemoryStore) update(id string, mutate func(*model.Filing)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.filings[id]
	if !ok {
		return ErrNotFound
	}
	f = cloneFiling(f)
	mutate(&f)
	f.UpdatedAt = s.now()
	s.filings[id] = f
	return nil
}

func (s *MemoryStore) CreateGroup(_ context.Context, g model.Group) (model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range g.FilingIDs {
		if _, ok := s.filings[id]; !ok {
			return model.Group{}, ErrNotFound
		}
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	g.FilingIDs = slices.Clone(g.FilingIDs)
	s.groups[g.ID] = g
	for _, id := range g.FilingIDs {
		f := s.filings[id]
		f.GroupID = g.ID
		s.filings[id] = f
	}
	g.FilingIDs = slices.Clone(g.FilingIDs)
	return g, nil
}

func (s *MemoryStore) Group(_ context.Context, id string) (model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return model.Group{}, ErrNotFound
	}
	g.FilingIDs = slices.Clone(g.FilingIDs)
	return g, nil
}

func (s *MemoryStore) Groups(_ context.Context) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Group, 0, len(s.groups))
	for _, g := range s.groups {
		g.FilingIDs = slices.Clone(g.FilingIDs)
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b model.Group) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) ConsultantDomains(_ context.Context) ([]model.ConsultantDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ConsultantDomain, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b model.ConsultantDomain) int { return strings.Compare(a.Domain, b.Domain) })
	return out, nil
}

// TopN returns the top N filings in O(log n + N).
func (s *MemoryStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.index.top(n)
	out := make([]types.Entry, 0, len(ids))
	for i, id := range ids {
		out = append(out, entryFor(i+1, s.filings[id]))
	}
	return out, nil
}

// Rank returns the ordinal position of a filing in O(log n).
func (s *MemoryStore) Rank(_ context.Context, id string) (types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filings[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	return entryFor(s.index.rank(id, f.PriorityScore), f), nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filings), nil
}

// startMetricsUpdater publishes the filing count at the configured interval.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				count, _ := s.Count(ctx)
				metrics.UpdateFilingsTotal(count)
			}
		}
	}()
}

const deactivatedNote = "Manually untagged"

func entryFor(rank int, f model.Filing) types.Entry {
	return types.Entry{
		Rank:       rank,
		FilingID:   f.ID,
		ClinicName: f.ClinicName,
		Score:      f.PriorityScore,
		Label:      f.PriorityLabel,
		Route:      f.Route,
	}
}

func matches(f *model.Filing, flt *Filter) bool {
	switch {
	case flt.State != "" && !strings.EqualFold(f.State, flt.State),
		flt.ServiceCategory != "" && f.ServiceCategory != flt.ServiceCategory,
		flt.Consultant != nil && f.IsConsultant != *flt.Consultant,
		flt.Route != "" && f.Route != flt.Route,
		flt.PriorityLabel != "" && f.PriorityLabel != flt.PriorityLabel,
		flt.OutreachStatus != "" && f.OutreachStatus != flt.OutreachStatus,
		flt.HCPNumber != "" && f.HCPNumber != flt.HCPNumber,
		flt.FilingDateFrom != "" && day(f.FilingDate) < flt.FilingDateFrom,
		flt.FilingDateTo != "" && day(f.FilingDate) > flt.FilingDateTo:
		return false
	}
	if flt.Search == "" {
		return true
	}
	q := strings.ToLower(flt.Search)
	return strings.Contains(strings.ToLower(f.ClinicName), q) ||
		strings.Contains(strings.ToLower(f.HCPNumber), q) ||
		strings.Contains(strings.ToLower(f.ApplicationNumber), q)
}

// day trims a timestamp like 2025-01-01T00:00:00.000 to its date.
func day(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func cloneFiling(f model.Filing) model.Filing {
	f.Notes = slices.Clone(f.Notes)
	f.HistoricalFunding = cloneFunding(f.HistoricalFunding)
	return f
}

func cloneFunding(years []model.FundingYear) []model.FundingYear {
	if years == nil {
		return nil
	}
	out := make([]model.FundingYear, len(years))
	for i, y := range years {
		y.Locations = slices.Clone(y.Locations)
		out[i] = y
	}
	return out
}
