// Package routing assigns a filing to one of three outreach tracks.
package routing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/outreach/internal/domain/model"
)

// Input is the classification a route is decided from.
type Input struct {
	IsConsultant     bool
	ServiceCategory  model.ServiceCategory
	FundingThreshold model.FundingThreshold
	TotalFunding     float64
}

// Result is the chosen route and a display explanation of why.
type Result struct {
	Route     model.Route
	Reasoning string
	Template  model.TemplateType
}

// Apply copies the result onto a classification.
func (r Result) Apply(c *model.Classification) {
	c.Route = r.Route
	c.RouteReasoning = r.Reasoning
	c.EmailTemplateType = r.Template
}

// Assign evaluates the decision table top-down; the first matching track wins.
func Assign(in Input) Result {
	var r Result
	switch {
	case IsRouteA(in):
		r = Result{Route: model.RouteA, Reasoning: routeAReason(in)}
	case IsRouteB(in):
		r = Result{Route: model.RouteB, Reasoning: routeBReason(in)}
	default:
		r = Result{Route: model.RouteC, Reasoning: routeCReason(in)}
	}
	r.Template = r.Route.Template()
	return r
}

// IsRouteA holds for direct contacts with high funding requesting voice-like service.
func IsRouteA(in Input) bool {
	return !in.IsConsultant && in.FundingThreshold == model.FundingHigh && in.ServiceCategory.IsVoiceLike()
}

// IsRouteB reports whether any standard-track rule matches, ignoring route A's precedence.
func IsRouteB(in Input) bool {
	voice := in.ServiceCategory.IsVoiceLike()
	switch {
	case !in.IsConsultant && in.FundingThreshold == model.FundingMedium:
		return true
	case !in.IsConsultant && voice && in.FundingThreshold != model.FundingUnknown:
		return true
	case in.IsConsultant && in.FundingThreshold == model.FundingHigh && voice:
		return true
	case in.ServiceCategory == model.ServiceData &&
		(in.FundingThreshold == model.FundingMedium || in.FundingThreshold == model.FundingHigh):
		return true
	}
	return false
}

func routeAReason(in Input) string {
	return printer().Sprintf("Premium Route: Direct contact with high funding (%s) requesting %s services - White-glove treatment",
		Dollars(in.TotalFunding), in.ServiceCategory)
}

func routeBReason(in Input) string {
	p := printer()
	switch {
	case !in.IsConsultant && in.FundingThreshold == model.FundingMedium:
		return p.Sprintf("Standard Route: Direct contact with medium funding (%s) - Professional outreach", Dollars(in.TotalFunding))
	case !in.IsConsultant && in.ServiceCategory.IsVoiceLike():
		return p.Sprintf("Standard Route: Direct contact requesting %s services - Feature-focused outreach", in.ServiceCategory)
	case in.IsConsultant && in.FundingThreshold == model.FundingHigh:
		return p.Sprintf("Standard Route: Consultant-managed account with high funding (%s) - Professional B2B outreach", Dollars(in.TotalFunding))
	default:
		return p.Sprintf("Standard Route: %s services with %s funding - Standard approach", in.ServiceCategory, in.FundingThreshold)
	}
}

func routeCReason(in Input) string {
	p := printer()
	switch {
	case in.IsConsultant && in.FundingThreshold == model.FundingLow:
		return p.Sprintf("Light-Touch Route: Consultant-managed with low funding (%s) - Informational approach", Dollars(in.TotalFunding))
	case in.FundingThreshold == model.FundingUnknown || in.TotalFunding == 0:
		return "Light-Touch Route: No funding history - Exploratory outreach for new participant"
	case in.ServiceCategory == model.ServiceUnknown || in.ServiceCategory == model.ServiceOther:
		return p.Sprintf("Light-Touch Route: Service type unclear (%s) - General information approach", in.ServiceCategory)
	default:
		via := "direct"
		if in.IsConsultant {
			via = "consultant"
		}
		return p.Sprintf("Light-Touch Route: %s service, %s funding via %s - Brief informational outreach",
			in.ServiceCategory, in.FundingThreshold, via)
	}
}

// Dollars renders an amount as whole US dollars with thousands separators, e.g. $110,000.
func Dollars(amount float64) string {
	return printer().Sprintf("$%d", int64(math.Round(amount)))
}

func printer() *message.Printer {
	return message.NewPrinter(language.AmericanEnglish)
}
