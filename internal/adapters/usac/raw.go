package usac

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/okian/outreach/internal/domain/category"
	"github.com/okian/outreach/internal/domain/model"
)

// Text decodes a JSON string, number or boolean into its textual form.
// Socrata URL columns arrive as {"url": "..."} objects and decode to the URL.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case b[0] == '{':
		var link struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(b, &link); err != nil {
			return err
		}
		*t = Text(link.URL)
	default:
		*t = Text(b)
	}
	return nil
}

// RawFiling is one row of the filings dataset. Field names drifted across
// dataset snapshots, so every known spelling gets its own field and
// Normalize resolves them.
type RawFiling struct {
	HCPNumber                Text `json:"hcp_number"`
	HealthCareProviderNumber Text `json:"health_care_provider_number"`

	ApplicationNumber        Text `json:"application_number"`
	Form465ApplicationNumber Text `json:"form_465_application_number"`

	SiteName               Text `json:"site_name"`
	HealthCareProviderName Text `json:"health_care_provider_name"`
	HCPName                Text `json:"hcp_name"`

	SiteAddress                        Text `json:"site_address"`
	SiteAddressLine1                   Text `json:"site_address_line_1"`
	ServiceDeliverySitePhysicalAddress Text `json:"service_delivery_site_physical_address"`
	SiteCity                           Text `json:"site_city"`
	ServiceDeliverySiteCity            Text `json:"service_delivery_site_city"`
	SiteState                          Text `json:"site_state"`
	ServiceDeliverySiteState           Text `json:"service_delivery_site_state"`
	SiteZip                            Text `json:"site_zip"`
	SiteZipCode                        Text `json:"site_zip_code"`
	ServiceDeliverySiteZipCode         Text `json:"service_delivery_site_zip_code"`

	ContactPersonName      Text `json:"contact_person_name"`
	ContactName            Text `json:"contact_name"`
	ContactFirstName       Text `json:"contact_first_name"`
	ContactLastName        Text `json:"contact_last_name"`
	ContactPersonTitle     Text `json:"contact_person_title"`
	ContactTitle           Text `json:"contact_title"`
	ContactEmailAddress    Text `json:"contact_email_address"`
	ContactEmail           Text `json:"contact_email"`
	ContactPhoneNumber     Text `json:"contact_phone_number"`
	ContactTelephoneNumber Text `json:"contact_telephone_number"`
	ContactPhone           Text `json:"contact_phone"`

	MailContactFirstName        Text `json:"mail_contact_first_name"`
	MailContactLastName         Text `json:"mail_contact_last_name"`
	MailContactEmail            Text `json:"mail_contact_email"`
	MailContactPhone            Text `json:"mail_contact_phone"`
	MailContactCompany          Text `json:"mail_contact_company"`
	MailContactOrganizationName Text `json:"mail_contact_organization_name"`
	MailingContactCompany       Text `json:"mailing_contact_company"`

	PostingDate                Text `json:"posting_date"`
	PostingStartDate           Text `json:"posting_start_date"`
	Form465DateCertified       Text `json:"form_465_date_certified"`
	AllowableContractDate      Text `json:"allowable_contract_date"`
	AllowableContractStartDate Text `json:"allowable_contract_start_date"`
	FundingYear                Text `json:"funding_year"`
	ApplicationType            Text `json:"application_type"`

	RequestForServices             Text `json:"request_for_services"`
	ServiceType                    Text `json:"service_type"`
	TypeOfService                  Text `json:"type_of_service"`
	NarrativeDescription           Text `json:"narrative_description"`
	Description                    Text `json:"description"`
	DescriptionOfServicesRequested Text `json:"description_of_services_requested"`
	ContractTermMonths             Text `json:"contract_term_months"`
	RequestedContractPeriod        Text `json:"requested_contract_period"`
	BandwidthMbps                  Text `json:"bandwidth_mbps"`
	LinkToFCCFormPDF               Text `json:"link_to_fcc_form_pdf"`
}

const (
	programTelecom = "Telecom"
	pdfURLPrefix   = "https://rhc.usac.org/rhc/public/viewPdf.seam?documentId="
)

func first(values ...Text) string {
	for _, v := range values {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

// Normalize resolves field aliases into a filing. Derived fields are left
// for the classification engine.
func Normalize(r *RawFiling) model.Filing {
	f := model.Filing{
		HCPNumber:         first(r.HCPNumber, r.HealthCareProviderNumber),
		ApplicationNumber: first(r.ApplicationNumber, r.Form465ApplicationNumber),
		ClinicName:        first(r.SiteName, r.HealthCareProviderName, r.HCPName),

		Address: first(r.SiteAddress, r.SiteAddressLine1, r.ServiceDeliverySitePhysicalAddress),
		City:    first(r.SiteCity, r.ServiceDeliverySiteCity),
		State:   first(r.SiteState, r.ServiceDeliverySiteState),
		Zip:     first(r.SiteZip, r.SiteZipCode, r.ServiceDeliverySiteZipCode),

		ContactName:  first(r.ContactPersonName, r.ContactName, joinName(r.ContactFirstName, r.ContactLastName)),
		ContactTitle: first(r.ContactPersonTitle, r.ContactTitle),
		ContactEmail: first(r.ContactEmailAddress, r.ContactEmail),
		ContactPhone: first(r.ContactPhoneNumber, r.ContactTelephoneNumber, r.ContactPhone, r.MailContactPhone),

		MailContactFirstName: first(r.MailContactFirstName),
		MailContactLastName:  first(r.MailContactLastName),
		MailContactOrgName:   first(r.MailContactCompany, r.MailContactOrganizationName, r.MailingContactCompany),
		MailContactEmail:     first(r.MailContactEmail),
		MailContactPhone:     first(r.MailContactPhone),

		PostingDate:                first(r.PostingDate, r.PostingStartDate),
		FilingDate:                 first(r.Form465DateCertified, r.PostingDate, r.PostingStartDate),
		AllowableContractStartDate: first(r.AllowableContractDate, r.AllowableContractStartDate),
		FundingYear:                first(r.FundingYear),
		ProgramType:                programTelecom,
		ApplicationType:            first(r.ApplicationType),

		ServiceTypeRaw:        category.RawText(first(r.RequestForServices), first(r.ServiceType), first(r.TypeOfService)),
		DescriptionOfServices: first(r.NarrativeDescription, r.Description, r.DescriptionOfServicesRequested),
		ContractLengthMonths:  atoi(first(r.ContractTermMonths, r.RequestedContractPeriod)),
		BandwidthMbps:         atof(first(r.BandwidthMbps)),

		OutreachStatus: model.OutreachPending,
	}

	if f.ApplicationNumber != "" {
		f.PDFURL = pdfURLPrefix + f.ApplicationNumber
	} else {
		f.PDFURL = first(r.LinkToFCCFormPDF)
	}
	return f
}

func joinName(firstName, lastName Text) Text {
	return Text(strings.TrimSpace(first(firstName) + " " + first(lastName)))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// fundingRow is one row of the funding commitments dataset.
type fundingRow struct {
	FundingYear Text `json:"funding_year"`
	Amount      Text `json:"total_approved_one_time_cost"`
	SiteName    Text `json:"site_name"`
	HCPName     Text `json:"hcp_name"`
	SiteAddress Text `json:"site_address"`
	Address1    Text `json:"site_address_line_1"`
}
