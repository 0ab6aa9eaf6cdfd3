// Package scoring computes a filing's bounded outreach priority.
package scoring

import (
	"github.com/okian/outreach/internal/domain/model"
)

// Scoring constants.
const (
	maxScoreValue = 100

	// Applied verbatim when a provider has no funding history at all.
	noHistoryScore = 25

	highLabelAt   = 70
	mediumLabelAt = 40

	pointsPerFundedYear = 10
	consultantPoints    = 15
	directContactPoints = 10
)

// Input abstracts the classification fields needed for scoring.
type Input struct {
	TotalFunding     float64
	YearsWithFunding int
	ServiceCategory  model.ServiceCategory
	IsConsultant     bool
	// HasHistory is false when no funding years were supplied.
	HasHistory bool
}

// Result contains the computed priority.
type Result struct {
	Score int
	Label model.PriorityLabel
}

// Score combines funding, participation consistency, service and contact
// components into a score clamped to 0..100.
func Score(in Input) Result {
	if !in.HasHistory {
		return Result{Score: noHistoryScore, Label: Label(noHistoryScore)}
	}

	score := fundingPoints(in.TotalFunding) +
		consistencyPoints(in.YearsWithFunding) +
		servicePoints(in.ServiceCategory) +
		contactPoints(in.IsConsultant)

	score = max(0, min(maxScoreValue, score))
	return Result{Score: score, Label: Label(score)}
}

// Label buckets a score.
func Label(score int) model.PriorityLabel {
	switch {
	case score >= highLabelAt:
		return model.PriorityHigh
	case score >= mediumLabelAt:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

func fundingPoints(total float64) int {
	switch {
	case total > 100_000:
		return 40
	case total > 50_000:
		return 30
	case total > 25_000:
		return 20
	case total > 0:
		return 10
	default:
		return 0
	}
}

func consistencyPoints(years int) int {
	years = max(0, min(3, years))
	return years * pointsPerFundedYear
}

func servicePoints(c model.ServiceCategory) int {
	switch c {
	case model.ServiceVoice, model.ServiceBothTelecomInternet:
		return 15
	case model.ServiceData:
		return 10
	case model.ServiceTelecomOnly:
		return 5
	default:
		return 0
	}
}

func contactPoints(isConsultant bool) int {
	if isConsultant {
		return consultantPoints
	}
	return directContactPoints
}

// Apply copies the result onto a classification.
func (r Result) Apply(c *model.Classification) {
	c.PriorityScore = r.Score
	c.PriorityLabel = r.Label
}
