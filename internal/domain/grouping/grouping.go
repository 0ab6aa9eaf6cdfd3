// Package grouping builds filing groups and per-provider rollups.
package grouping

import (
	"slices"
	"strings"

	"github.com/okian/outreach/internal/domain/model"
)

// MinMembers is the smallest group worth creating.
const MinMembers = 2

// NewGroup validates membership and computes the group's funding total and
// location count from the member filings.
func NewGroup(name, primaryID string, members []model.Filing) (model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Group{}, ErrNoName
	}
	if len(members) < MinMembers {
		return model.Group{}, ErrTooFewMembers
	}

	g := model.Group{
		Name:            name,
		PrimaryFilingID: primaryID,
		FilingIDs:       make([]string, 0, len(members)),
		LocationCount:   len(members),
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.ID]; dup {
			return model.Group{}, ErrDuplicateMember
		}
		seen[m.ID] = struct{}{}
		g.FilingIDs = append(g.FilingIDs, m.ID)
		for _, y := range m.HistoricalFunding {
			g.TotalFundingAmount += y.Amount
		}
	}
	if _, ok := seen[primaryID]; !ok {
		return model.Group{}, ErrPrimaryNotMember
	}
	return g, nil
}

// AggregateByProvider rolls filings up by provider number, in order of first appearance.
// Filings without a provider number are skipped.
func AggregateByProvider(filings []model.Filing) []model.ProviderSummary {
	index := make(map[string]int)
	var out []model.ProviderSummary
	years := make(map[string]map[int]float64)

	for _, f := range filings {
		if f.HCPNumber == "" {
			continue
		}
		i, ok := index[f.HCPNumber]
		if !ok {
			i = len(out)
			index[f.HCPNumber] = i
			out = append(out, model.ProviderSummary{HCPNumber: f.HCPNumber, ClinicName: f.ClinicName})
			years[f.HCPNumber] = make(map[int]float64)
		}
		s := &out[i]
		s.ApplicationCount++
		if f.ApplicationNumber != "" && !slices.Contains(s.ApplicationNumbers, f.ApplicationNumber) {
			s.ApplicationNumbers = append(s.ApplicationNumbers, f.ApplicationNumber)
		}
		if f.Address != "" && !hasLocation(s.Locations, f.Address) {
			s.Locations = append(s.Locations, model.FundingLocation{Name: f.ClinicName, Address: f.Address})
		}
		// Funding history is per provider, so every filing carries the same
		// years; keep the largest figure seen per year.
		for _, y := range f.HistoricalFunding {
			if y.Amount > years[f.HCPNumber][y.Year] {
				years[f.HCPNumber][y.Year] = y.Amount
			}
		}
	}

	for i := range out {
		s := &out[i]
		for year, amount := range years[s.HCPNumber] {
			s.FundingByYear = append(s.FundingByYear, model.FundingYear{Year: year, Amount: amount})
			s.TotalFunding += amount
		}
		slices.SortFunc(s.FundingByYear, func(a, b model.FundingYear) int { return b.Year - a.Year })
	}
	return out
}

func hasLocation(locs []model.FundingLocation, address string) bool {
	return slices.ContainsFunc(locs, func(l model.FundingLocation) bool {
		return strings.EqualFold(l.Address, address)
	})
}
