// Package model contains domain models passed between layers.
package model

import "time"

// Filing is one funding-request filing for one site.
// JSON names follow the stored column names so records round-trip through the API unchanged.
type Filing struct {
	ID        string `json:"id"`
	DedupHash string `json:"dedup_hash"`

	HCPNumber         string `json:"hcp_number"`
	ApplicationNumber string `json:"application_number"`
	ClinicName        string `json:"clinic_name"`

	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`

	ContactName  string `json:"contact_name"`
	ContactTitle string `json:"contact_title,omitempty"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`

	MailContactFirstName string `json:"mail_contact_first_name"`
	MailContactLastName  string `json:"mail_contact_last_name"`
	MailContactOrgName   string `json:"mail_contact_org_name"`
	MailContactEmail     string `json:"mail_contact_email"`
	MailContactPhone     string `json:"mail_contact_phone"`

	FilingDate                 string  `json:"filing_date"`
	PostingDate                string  `json:"posting_date,omitempty"`
	AllowableContractStartDate string  `json:"allowable_contract_start_date,omitempty"`
	FundingYear                string  `json:"funding_year"`
	ProgramType                string  `json:"program_type,omitempty"`
	ApplicationType            string  `json:"application_type"`
	ServiceTypeRaw             string  `json:"service_type"`
	DescriptionOfServices      string  `json:"description_of_services,omitempty"`
	ContractLengthMonths       int     `json:"contract_length_months,omitempty"`
	BandwidthMbps              float64 `json:"bandwidth_mbps,omitempty"`
	PDFURL                     string  `json:"pdf_url"`

	Classification

	// Per-contact flags set by staff. They are independent of the
	// domain-derived consultant classification.
	ContactIsConsultant     bool `json:"contact_is_consultant"`
	MailContactIsConsultant bool `json:"mail_contact_is_consultant"`

	OutreachStatus OutreachStatus `json:"outreach_status"`
	Notes          []Note         `json:"notes"`
	GroupID        string         `json:"belongs_to_group_id,omitempty"`

	HistoricalFunding []FundingYear `json:"historical_funding,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MailContactName joins the mail contact's first and last name.
func (f *Filing) MailContactName() string {
	switch {
	case f.MailContactFirstName == "":
		return f.MailContactLastName
	case f.MailContactLastName == "":
		return f.MailContactFirstName
	}
	return f.MailContactFirstName + " " + f.MailContactLastName
}

// Classification holds every field the engine derives for a filing.
type Classification struct {
	IsConsultant              bool            `json:"is_consultant"`
	ConsultantCompany         string          `json:"consultant_company,omitempty"`
	ConsultantEmailDomain     string          `json:"consultant_email_domain,omitempty"`
	ConsultantDetectionMethod DetectionMethod `json:"consultant_detection_method,omitempty"`

	ServiceCategory ServiceCategory `json:"requested_service_category"`

	Year1Funding     float64          `json:"year1_funding"`
	Year2Funding     float64          `json:"year2_funding"`
	Year3Funding     float64          `json:"year3_funding"`
	Total3yrFunding  float64          `json:"total_3yr_funding"`
	FundingThreshold FundingThreshold `json:"funding_threshold"`

	PriorityScore int           `json:"priority_score"`
	PriorityLabel PriorityLabel `json:"priority_label"`

	Route             Route        `json:"abc_route"`
	RouteReasoning    string       `json:"route_reasoning"`
	EmailTemplateType TemplateType `json:"email_template_type"`
}

// FundingYear is one prior year's aggregate award for a provider.
type FundingYear struct {
	Year      int               `json:"year"`
	Amount    float64           `json:"amount"`
	Locations []FundingLocation `json:"locations,omitempty"`
}

// FundingLocation breaks a year's amount down per site.
type FundingLocation struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// Note is a free-text staff annotation on a filing.
type Note struct {
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// Group ties several filings of one organization together.
type Group struct {
	ID                 string    `json:"id"`
	Name               string    `json:"group_name"`
	PrimaryFilingID    string    `json:"primary_clinic_id"`
	FilingIDs          []string  `json:"clinic_ids"`
	TotalFundingAmount float64   `json:"total_funding_amount"`
	LocationCount      int       `json:"location_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// ConsultantDomain is a registry entry for an email domain known to belong to a consultant.
type ConsultantDomain struct {
	Domain            string    `json:"domain"`
	AssociatedCompany string    `json:"associated_company"`
	AddedBy           string    `json:"added_by"`
	IsActive          bool      `json:"is_active"`
	Notes             string    `json:"notes,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProviderSummary aggregates every filing of one provider.
type ProviderSummary struct {
	HCPNumber          string            `json:"hcp_number"`
	ClinicName         string            `json:"clinic_name"`
	ApplicationCount   int               `json:"application_count"`
	ApplicationNumbers []string          `json:"application_numbers"`
	Locations          []FundingLocation `json:"locations"`
	FundingByYear      []FundingYear     `json:"funding_by_year"`
	TotalFunding       float64           `json:"total_funding"`
}
