// Package funding merges a provider's recent funding history and buckets it into a tier.
package funding

import (
	"slices"

	"github.com/okian/outreach/internal/domain/model"
)

// Years is how many of the most recent funding years count.
const Years = 3

const (
	highAbove     = 100_000
	mediumAtLeast = 25_000
)

// Summary is the aggregated view of up to three funding years.
type Summary struct {
	Amounts          [Years]float64
	Total            float64
	Threshold        model.FundingThreshold
	YearsWithFunding int
	// HasHistory is false when no years were supplied at all.
	HasHistory bool
}

// Aggregate sums the most recent three years and classifies the total.
// The input is sorted newest first on a copy; the caller's slice is not modified.
func Aggregate(history []model.FundingYear) Summary {
	s := Summary{Threshold: model.FundingUnknown}
	if len(history) == 0 {
		return s
	}
	s.HasHistory = true

	recent := slices.Clone(history)
	slices.SortStableFunc(recent, func(a, b model.FundingYear) int { return b.Year - a.Year })
	if len(recent) > Years {
		recent = recent[:Years]
	}

	for i, y := range recent {
		s.Amounts[i] = y.Amount
		s.Total += y.Amount
		if y.Amount > 0 {
			s.YearsWithFunding++
		}
	}
	s.Threshold = Tier(s.Total)
	return s
}

// Tier buckets a three-year total.
func Tier(total float64) model.FundingThreshold {
	switch {
	case total > highAbove:
		return model.FundingHigh
	case total >= mediumAtLeast:
		return model.FundingMedium
	case total > 0:
		return model.FundingLow
	default:
		return model.FundingUnknown
	}
}

// Apply copies the summary onto a classification.
func (s Summary) Apply(c *model.Classification) {
	c.Year1Funding = s.Amounts[0]
	c.Year2Funding = s.Amounts[1]
	c.Year3Funding = s.Amounts[2]
	c.Total3yrFunding = s.Total
	c.FundingThreshold = s.Threshold
}

// Validate rejects amounts the engine does not accept.
func Validate(history []model.FundingYear) error {
	for _, y := range history {
		if y.Amount < 0 {
			return ErrNegativeAmount
		}
		for _, l := range y.Locations {
			if l.Amount < 0 {
				return ErrNegativeAmount
			}
		}
	}
	return nil
}
