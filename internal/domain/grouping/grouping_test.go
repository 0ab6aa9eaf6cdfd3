package grouping_test

import (
	"testing"

	"github.com/okian/outreach/internal/domain/grouping"
	"github.com/okian/outreach/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewGroup(t *testing.T) {
	Convey("Given two filings with funding history", t, func() {
		members := []model.Filing{
			{ID: "a", HistoricalFunding: []model.FundingYear{{Year: 2024, Amount: 10_000}, {Year: 2023, Amount: 5_000}}},
			{ID: "b", HistoricalFunding: []model.FundingYear{{Year: 2024, Amount: 2_500}}},
		}

		Convey("When they are grouped", func() {
			g, err := grouping.NewGroup(" North Clinics ", "a", members)

			Convey("Then totals and locations are computed", func() {
				So(err, ShouldBeNil)
				So(g.Name, ShouldEqual, "North Clinics")
				So(g.PrimaryFilingID, ShouldEqual, "a")
				So(g.FilingIDs, ShouldResemble, []string{"a", "b"})
				So(g.TotalFundingAmount, ShouldEqual, 17_500)
				So(g.LocationCount, ShouldEqual, 2)
			})
		})

		Convey("When the name is blank", func() {
			_, err := grouping.NewGroup("  ", "a", members)
			So(err, ShouldEqual, grouping.ErrNoName)
		})

		Convey("When only one filing is given", func() {
			_, err := grouping.NewGroup("G", "a", members[:1])
			So(err, ShouldEqual, grouping.ErrTooFewMembers)
		})

		Convey("When the primary is not a member", func() {
			_, err := grouping.NewGroup("G", "z", members)
			So(err, ShouldEqual, grouping.ErrPrimaryNotMember)
		})

		Convey("When a filing is listed twice", func() {
			_, err := grouping.NewGroup("G", "a", []model.Filing{members[0], members[0]})
			So(err, ShouldEqual, grouping.ErrDuplicateMember)
		})
	})
}

func TestAggregateByProvider(t *testing.T) {
	Convey("Given filings from two providers", t, func() {
		history := []model.FundingYear{{Year: 2023, Amount: 20_000}, {Year: 2024, Amount: 30_000}}
		filings := []model.Filing{
			{HCPNumber: "H1", ApplicationNumber: "A1", ClinicName: "North", Address: "1 Main", HistoricalFunding: history},
			{HCPNumber: "H2", ApplicationNumber: "B1", ClinicName: "South", Address: "9 Elm"},
			{HCPNumber: "H1", ApplicationNumber: "A2", ClinicName: "North Annex", Address: "2 Main", HistoricalFunding: history},
			{HCPNumber: "H1", ApplicationNumber: "A2", ClinicName: "North Annex", Address: "2 MAIN"},
			{ApplicationNumber: "X"},
		}

		out := grouping.AggregateByProvider(filings)

		Convey("Then each provider is rolled up once, in order", func() {
			So(len(out), ShouldEqual, 2)
			So(out[0].HCPNumber, ShouldEqual, "H1")
			So(out[1].HCPNumber, ShouldEqual, "H2")
		})

		Convey("Then counts, numbers and locations are merged", func() {
			So(out[0].ApplicationCount, ShouldEqual, 3)
			So(out[0].ApplicationNumbers, ShouldResemble, []string{"A1", "A2"})
			So(len(out[0].Locations), ShouldEqual, 2)
		})

		Convey("Then funding is listed newest first without double counting", func() {
			So(out[0].FundingByYear, ShouldResemble, []model.FundingYear{{Year: 2024, Amount: 30_000}, {Year: 2023, Amount: 20_000}})
			So(out[0].TotalFunding, ShouldEqual, 50_000)
			So(out[1].TotalFunding, ShouldEqual, 0)
		})
	})
}
