package funding_test

import (
	"testing"

	"github.com/okian/outreach/internal/domain/funding"
	"github.com/okian/outreach/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTier(t *testing.T) {
	Convey("Given three-year totals at the tier boundaries", t, func() {
		So(funding.Tier(25_000), ShouldEqual, model.FundingMedium)
		So(funding.Tier(24_999.99), ShouldEqual, model.FundingLow)
		So(funding.Tier(100_000), ShouldEqual, model.FundingMedium)
		So(funding.Tier(100_001), ShouldEqual, model.FundingHigh)
		So(funding.Tier(0), ShouldEqual, model.FundingUnknown)
		So(funding.Tier(1), ShouldEqual, model.FundingLow)
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given no funding history", t, func() {
		s := funding.Aggregate(nil)
		So(s.HasHistory, ShouldBeFalse)
		So(s.Total, ShouldEqual, 0)
		So(s.Threshold, ShouldEqual, model.FundingUnknown)
		So(s.YearsWithFunding, ShouldEqual, 0)
	})

	Convey("Given two funded years", t, func() {
		s := funding.Aggregate([]model.FundingYear{{Year: 2024, Amount: 60_000}, {Year: 2023, Amount: 50_000}})
		So(s.HasHistory, ShouldBeTrue)
		So(s.Amounts, ShouldResemble, [3]float64{60_000, 50_000, 0})
		So(s.Total, ShouldEqual, 110_000)
		So(s.Threshold, ShouldEqual, model.FundingHigh)
		So(s.YearsWithFunding, ShouldEqual, 2)
	})

	Convey("Given more than three years out of order", t, func() {
		history := []model.FundingYear{
			{Year: 2020, Amount: 1_000_000},
			{Year: 2023, Amount: 10_000},
			{Year: 2024, Amount: 0},
			{Year: 2022, Amount: 5_000},
		}
		s := funding.Aggregate(history)

		Convey("Then only the newest three count", func() {
			So(s.Amounts, ShouldResemble, [3]float64{0, 10_000, 5_000})
			So(s.Total, ShouldEqual, 15_000)
			So(s.Threshold, ShouldEqual, model.FundingLow)
			So(s.YearsWithFunding, ShouldEqual, 2)
		})

		Convey("Then the caller's slice keeps its order", func() {
			So(history[0].Year, ShouldEqual, 2020)
		})
	})

	Convey("Given years that are all zero", t, func() {
		s := funding.Aggregate([]model.FundingYear{{Year: 2024}, {Year: 2023}})
		So(s.HasHistory, ShouldBeTrue)
		So(s.Threshold, ShouldEqual, model.FundingUnknown)
	})

	Convey("Given a summary applied to a classification", t, func() {
		var c model.Classification
		funding.Aggregate([]model.FundingYear{{Year: 2024, Amount: 30_000}}).Apply(&c)
		So(c.Year1Funding, ShouldEqual, 30_000)
		So(c.Total3yrFunding, ShouldEqual, 30_000)
		So(c.FundingThreshold, ShouldEqual, model.FundingMedium)
	})
}

func TestValidate(t *testing.T) {
	Convey("Given funding history with amounts", t, func() {
		So(funding.Validate([]model.FundingYear{{Year: 2024, Amount: 10}}), ShouldBeNil)
		So(funding.Validate([]model.FundingYear{{Year: 2024, Amount: -1}}), ShouldEqual, funding.ErrNegativeAmount)
		So(funding.Validate([]model.FundingYear{{Year: 2024, Locations: []model.FundingLocation{{Amount: -5}}}}), ShouldEqual, funding.ErrNegativeAmount)
	})
}
