// Package types contains common types used across the application
package types

import "github.com/okian/outreach/internal/domain/model"

// Entry is one position in the outreach priority ranking.
type Entry struct {
	Rank       int                 `json:"rank"`
	FilingID   string              `json:"filing_id"`
	ClinicName string              `json:"clinic_name"`
	Score      int                 `json:"priority_score"`
	Label      model.PriorityLabel `json:"priority_label"`
	Route      model.Route         `json:"abc_route"`
}

// Page is a window of a listing plus the total number of matches.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
