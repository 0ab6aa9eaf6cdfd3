package contact

import (
	"strings"

	"github.com/okian/outreach/internal/domain/model"
)

const unknownCompany = "Unknown"

// BulkRetag is the fan-out a manual tag asks the store to perform. Every
// other filing whose mail contact uses Domain, or that was already attributed
// to Domain, gets the same company with detection method auto_domain.
type BulkRetag struct {
	Domain    string
	Company   string
	ExcludeID string
}

// Registry returns the consultant-domain registry entry recorded alongside the retag.
func (b BulkRetag) Registry() model.ConsultantDomain {
	company := b.Company
	if company == "" {
		company = unknownCompany
	}
	return model.ConsultantDomain{
		Domain:            b.Domain,
		AssociatedCompany: company,
		AddedBy:           "manual_tag",
		IsActive:          true,
	}
}

// ManualTag marks the filing as consultant-managed by a human decision.
// The domain comes from the mail contact, falling back to a domain already on
// the record. companyOverride wins over the mail contact's organization.
func ManualTag(f model.Filing, companyOverride string) (model.Filing, BulkRetag, error) {
	domain := Domain(f.MailContactEmail)
	if domain == "" {
		domain = strings.ToLower(strings.TrimSpace(f.ConsultantEmailDomain))
	}
	if domain == "" {
		return f, BulkRetag{}, ErrNoDomain
	}

	company := strings.TrimSpace(companyOverride)
	if company == "" {
		company = strings.TrimSpace(f.MailContactOrgName)
	}
	if company == "" {
		company = f.ConsultantCompany
	}

	Result{
		IsConsultant:          true,
		ConsultantCompany:     company,
		ConsultantEmailDomain: domain,
		DetectionMethod:       model.DetectionManualTagged,
	}.Apply(&f.Classification)

	return f, ProposeBulkRetag(f.ID, domain, company), nil
}

// ProposeBulkRetag describes the sibling update for a tagged domain.
func ProposeBulkRetag(excludeID, domain, company string) BulkRetag {
	return BulkRetag{Domain: domain, Company: company, ExcludeID: excludeID}
}

// Sibling applies a bulk retag to another filing sharing the domain.
// Filings a human already decided on are left alone.
func (b BulkRetag) Sibling(f model.Filing) (model.Filing, bool) {
	if f.ID == b.ExcludeID || !b.Matches(f) {
		return f, false
	}
	switch f.ConsultantDetectionMethod {
	case model.DetectionManualTagged, model.DetectionManualUntagged:
		return f, false
	}
	Result{
		IsConsultant:          true,
		ConsultantCompany:     b.Company,
		ConsultantEmailDomain: b.Domain,
		DetectionMethod:       model.DetectionAutoDomain,
	}.Apply(&f.Classification)
	return f, true
}

// Matches reports whether f belongs to the retagged domain.
func (b BulkRetag) Matches(f model.Filing) bool {
	return Domain(f.MailContactEmail) == b.Domain || f.ConsultantEmailDomain == b.Domain
}

// ManualUntag clears the consultant classification and records that a human
// removed it. Filings tagged through an earlier bulk retag keep their tag.
func ManualUntag(f model.Filing) (model.Filing, string) {
	domain := f.ConsultantEmailDomain
	Result{DetectionMethod: model.DetectionManualUntagged}.Apply(&f.Classification)
	return f, domain
}

// ToggleRole flips the per-contact consultant flag for one role.
// It never touches the domain-derived classification.
func ToggleRole(f model.Filing, role model.ContactRole) (model.Filing, error) {
	switch role {
	case model.ContactPrimary:
		f.ContactIsConsultant = !f.ContactIsConsultant
	case model.ContactMail:
		f.MailContactIsConsultant = !f.MailContactIsConsultant
	default:
		return f, ErrUnknownRole
	}
	return f, nil
}
