package model

// ServiceCategory is the normalized taxonomy of requested services.
type ServiceCategory string

const (
	ServiceVoice               ServiceCategory = "voice"
	ServiceData                ServiceCategory = "data"
	ServiceBothTelecomInternet ServiceCategory = "both_telecom_internet"
	ServiceTelecomOnly         ServiceCategory = "telecommunications_only"
	ServiceOther               ServiceCategory = "other"
	ServiceUnknown             ServiceCategory = "unknown"
)

// IsVoiceLike reports whether the category counts as voice for scoring and routing.
func (c ServiceCategory) IsVoiceLike() bool {
	return c == ServiceVoice || c == ServiceBothTelecomInternet
}

// FundingThreshold buckets a provider's trailing three-year total.
type FundingThreshold string

const (
	FundingHigh    FundingThreshold = "high"
	FundingMedium  FundingThreshold = "medium"
	FundingLow     FundingThreshold = "low"
	FundingUnknown FundingThreshold = "unknown"
)

// PriorityLabel buckets the priority score.
type PriorityLabel string

const (
	PriorityHigh   PriorityLabel = "High"
	PriorityMedium PriorityLabel = "Medium"
	PriorityLow    PriorityLabel = "Low"
)

// Route is an outreach-treatment track.
type Route string

const (
	RouteA          Route = "route_a"
	RouteB          Route = "route_b"
	RouteC          Route = "route_c"
	RouteUnassigned Route = "unassigned"
)

// TemplateType names the email template used for a route.
type TemplateType string

const (
	TemplatePremium    TemplateType = "premium"
	TemplateStandard   TemplateType = "standard"
	TemplateLightTouch TemplateType = "light_touch"
)

// Template returns the email template type bound to the route.
func (r Route) Template() TemplateType {
	switch r {
	case RouteA:
		return TemplatePremium
	case RouteB:
		return TemplateStandard
	default:
		return TemplateLightTouch
	}
}

// DetectionMethod records how the consultant classification was reached.
// The zero value means no consultant classification exists.
type DetectionMethod string

const (
	DetectionNone           DetectionMethod = ""
	DetectionAutoDomain     DetectionMethod = "auto_domain"
	DetectionManualTagged   DetectionMethod = "manual_tagged"
	DetectionManualUntagged DetectionMethod = "manual_untagged"
)

// OutreachStatus tracks where a filing is in the outreach workflow.
type OutreachStatus string

const (
	OutreachPending          OutreachStatus = "pending"
	OutreachReadyForOutreach OutreachStatus = "ready_for_outreach"
	OutreachSent             OutreachStatus = "outreach_sent"
	OutreachFollowUp         OutreachStatus = "follow_up"
	OutreachCompleted        OutreachStatus = "completed"
)

// Valid reports whether s is a known status.
func (s OutreachStatus) Valid() bool {
	switch s {
	case OutreachPending, OutreachReadyForOutreach, OutreachSent, OutreachFollowUp, OutreachCompleted:
		return true
	}
	return false
}

// ContactRole selects which of a filing's two contacts a flag applies to.
type ContactRole string

const (
	ContactPrimary ContactRole = "primary"
	ContactMail    ContactRole = "mail"
)
