package usac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/outreach/internal/domain/model"
)

func TestText_UnmarshalJSON(t *testing.T) {
	var row struct {
		S    Text `json:"s"`
		N    Text `json:"n"`
		B    Text `json:"b"`
		Nil  Text `json:"nil"`
		Link Text `json:"link"`
	}
	err := json.Unmarshal([]byte(`{"s":"abc","n":12.5,"b":true,"nil":null,"link":{"url":"https://x/y.pdf"}}`), &row)
	require.NoError(t, err)

	assert.Equal(t, Text("abc"), row.S)
	assert.Equal(t, Text("12.5"), row.N)
	assert.Equal(t, Text("true"), row.B)
	assert.Equal(t, Text(""), row.Nil)
	assert.Equal(t, Text("https://x/y.pdf"), row.Link)
}

func TestNormalize_PrefersFirstAlias(t *testing.T) {
	raw := RawFiling{
		HCPNumber:                "",
		HealthCareProviderNumber: "12345",
		ApplicationNumber:        "  ",
		Form465ApplicationNumber: "APP-9",
		SiteName:                 "Main Clinic",
		HCPName:                  "Ignored",
		SiteAddressLine1:         "1 Road",
		ServiceDeliverySiteCity:  "Austin",
		SiteState:                "TX",
		SiteZipCode:              "73301",
		ContactFirstName:         "Ana",
		ContactLastName:          "Ruiz",
		ContactEmail:             "ana@clinic.org",
		MailContactFirstName:     "Bo",
		MailContactLastName:      "Lee",
		MailContactEmail:         "bo@consult.com",
		MailContactPhone:         "555-0100",
		MailingContactCompany:    "Consult Co",
		PostingStartDate:         "2024-03-01T00:00:00.000",
		AllowableContractDate:    "2024-07-01",
		TypeOfService:            "Voice services",
		Description:              "Phones",
		RequestedContractPeriod:  "36",
		BandwidthMbps:            "100.5",
	}

	f := Normalize(&raw)

	assert.Equal(t, "12345", f.HCPNumber)
	assert.Equal(t, "APP-9", f.ApplicationNumber)
	assert.Equal(t, "Main Clinic", f.ClinicName)
	assert.Equal(t, "1 Road", f.Address)
	assert.Equal(t, "Austin", f.City)
	assert.Equal(t, "TX", f.State)
	assert.Equal(t, "73301", f.Zip)
	assert.Equal(t, "Ana Ruiz", f.ContactName)
	assert.Equal(t, "ana@clinic.org", f.ContactEmail)
	assert.Equal(t, "555-0100", f.ContactPhone, "falls back to the mail contact phone")
	assert.Equal(t, "Bo Lee", f.MailContactName())
	assert.Equal(t, "Consult Co", f.MailContactOrgName)
	assert.Equal(t, "2024-03-01T00:00:00.000", f.FilingDate)
	assert.Equal(t, "2024-03-01T00:00:00.000", f.PostingDate)
	assert.Equal(t, "2024-07-01", f.AllowableContractStartDate)
	assert.Equal(t, "Telecom", f.ProgramType)
	assert.Equal(t, "Voice services", f.ServiceTypeRaw)
	assert.Equal(t, "Phones", f.DescriptionOfServices)
	assert.Equal(t, 36, f.ContractLengthMonths)
	assert.InDelta(t, 100.5, f.BandwidthMbps, 0.001)
	assert.Equal(t, pdfURLPrefix+"APP-9", f.PDFURL)
	assert.Equal(t, model.OutreachPending, f.OutreachStatus)
}

func TestNormalize_CertifiedDateWinsAndPDFFallback(t *testing.T) {
	raw := RawFiling{
		Form465DateCertified: "2024-02-10",
		PostingDate:          "2024-02-01",
		ContactName:          "Direct Name",
		ContactFirstName:     "Not",
		ContactLastName:      "Used",
		LinkToFCCFormPDF:     "https://fcc/form.pdf",
		ContractTermMonths:   "abc",
	}

	f := Normalize(&raw)

	assert.Equal(t, "2024-02-10", f.FilingDate)
	assert.Equal(t, "2024-02-01", f.PostingDate)
	assert.Equal(t, "Direct Name", f.ContactName)
	assert.Equal(t, "https://fcc/form.pdf", f.PDFURL)
	assert.Zero(t, f.ContractLengthMonths)
}

func TestAggregateFunding(t *testing.T) {
	rows := []fundingRow{
		{FundingYear: "2023", Amount: "1000", SiteName: "A", SiteAddress: "1 St"},
		{FundingYear: "2023", Amount: "500", SiteName: "A", SiteAddress: "1 St"},
		{FundingYear: "2023", Amount: "250", HCPName: "B", Address1: "2 St"},
		{FundingYear: "2024", Amount: "10.5"},
		{FundingYear: "2022", Amount: "-5"},
		{FundingYear: "n/a", Amount: "7"},
	}

	years := aggregateFunding(rows)

	require.Len(t, years, 2)
	assert.Equal(t, 2024, years[0].Year)
	assert.InDelta(t, 10.5, years[0].Amount, 0.001)
	assert.Equal(t, 2023, years[1].Year)
	assert.InDelta(t, 1750, years[1].Amount, 0.001)
	assert.Equal(t, []model.FundingLocation{
		{Name: "A", Address: "1 St", Amount: 1500},
		{Name: "B", Address: "2 St", Amount: 250},
	}, years[1].Locations)
}
