// Package category maps free-text service descriptions onto the service taxonomy.
package category

import (
	"strings"

	"github.com/okian/outreach/internal/domain/model"
)

// rule matches when any of anyOf occurs, or when every entry of allOf occurs.
type rule struct {
	category model.ServiceCategory
	anyOf    []string
	allOf    []string
}

// Evaluated in order; the first match wins.
var rules = []rule{
	{category: model.ServiceVoice, anyOf: []string{"voice", "telephone", "voip", "phone"}},
	{category: model.ServiceData, anyOf: []string{"data", "internet", "broadband"}},
	{category: model.ServiceBothTelecomInternet, anyOf: []string{"both"}, allOf: []string{"telecom", "internet"}},
	{category: model.ServiceTelecomOnly, allOf: []string{"telecommunications", "only"}},
	{category: model.ServiceOther, anyOf: []string{"other", "consulting", "network design"}},
}

func (r rule) matches(s string) bool {
	for _, kw := range r.anyOf {
		if strings.Contains(s, kw) {
			return true
		}
	}
	if len(r.allOf) == 0 {
		return false
	}
	for _, kw := range r.allOf {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	return true
}

// Classify returns the category of a raw service description.
// Empty or unmatched text is unknown.
func Classify(raw string) model.ServiceCategory {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return model.ServiceUnknown
	}
	for _, r := range rules {
		if r.matches(s) {
			return r.category
		}
	}
	return model.ServiceUnknown
}

// RawText picks the first non-empty service description among the source's
// alternative fields.
func RawText(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}
