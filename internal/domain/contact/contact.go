// Package contact decides whether a filing is managed by a third-party consultant.
package contact

import (
	"strings"

	"github.com/okian/outreach/internal/domain/model"
)

// Result is the consultant classification of one filing.
type Result struct {
	IsConsultant          bool
	ConsultantCompany     string
	ConsultantEmailDomain string
	DetectionMethod       model.DetectionMethod
}

// Domain returns the part of an address after '@', lowercased.
// Addresses without '@' have no domain.
func Domain(email string) string {
	_, rest, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok {
		return ""
	}
	// Anything after a second '@' is not part of the domain.
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		rest = rest[:i]
	}
	return strings.ToLower(rest)
}

// Classify flags a filing as consultant-managed when the mail contact writes
// from a different, non-empty domain than the facility contact.
func Classify(contactEmail, mailContactEmail, mailContactOrgName string) Result {
	contactDomain := Domain(contactEmail)
	mailDomain := Domain(mailContactEmail)

	if mailDomain == "" || contactDomain == mailDomain {
		return Result{}
	}
	return Result{
		IsConsultant:          true,
		ConsultantCompany:     strings.TrimSpace(mailContactOrgName),
		ConsultantEmailDomain: mailDomain,
		DetectionMethod:       model.DetectionAutoDomain,
	}
}

// Apply copies the result onto the filing's classification.
func (r Result) Apply(c *model.Classification) {
	c.IsConsultant = r.IsConsultant
	c.ConsultantCompany = r.ConsultantCompany
	c.ConsultantEmailDomain = r.ConsultantEmailDomain
	c.ConsultantDetectionMethod = r.DetectionMethod
}

// FromFiling reads back the classification already stored on a filing.
func FromFiling(f *model.Filing) Result {
	return Result{
		IsConsultant:          f.IsConsultant,
		ConsultantCompany:     f.ConsultantCompany,
		ConsultantEmailDomain: f.ConsultantEmailDomain,
		DetectionMethod:       f.ConsultantDetectionMethod,
	}
}
