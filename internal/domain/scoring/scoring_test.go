package scoring_test

import (
	"testing"

	"github.com/okian/outreach/internal/domain/model"
	scoring "github.com/okian/outreach/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScore(t *testing.T) {
	Convey("Given a consultant with maximal funding, three funded years and voice service", t, func() {
		r := scoring.Score(scoring.Input{
			TotalFunding:     250_000,
			YearsWithFunding: 3,
			ServiceCategory:  model.ServiceVoice,
			IsConsultant:     true,
			HasHistory:       true,
		})

		Convey("Then the score is exactly 100 and High", func() {
			So(r.Score, ShouldEqual, 100)
			So(r.Label, ShouldEqual, model.PriorityHigh)
		})
	})

	Convey("Given the same filing handled directly", t, func() {
		r := scoring.Score(scoring.Input{
			TotalFunding:     250_000,
			YearsWithFunding: 3,
			ServiceCategory:  model.ServiceBothTelecomInternet,
			HasHistory:       true,
		})
		So(r.Score, ShouldEqual, 95)
	})

	Convey("Given no funding history", t, func() {
		r := scoring.Score(scoring.Input{ServiceCategory: model.ServiceVoice, IsConsultant: true})

		Convey("Then the fixed fallback applies", func() {
			So(r.Score, ShouldEqual, 25)
			So(r.Label, ShouldEqual, model.PriorityLow)
		})
	})

	Convey("Given history whose amounts are all zero", t, func() {
		r := scoring.Score(scoring.Input{ServiceCategory: model.ServiceData, HasHistory: true})
		Convey("Then the formula still runs", func() {
			So(r.Score, ShouldEqual, 20)
			So(r.Label, ShouldEqual, model.PriorityLow)
		})
	})

	Convey("Given funding just above each bucket edge", t, func() {
		base := scoring.Input{ServiceCategory: model.ServiceUnknown, HasHistory: true}
		cases := []struct {
			total float64
			want  int
		}{
			{100_001, 50},
			{100_000, 40},
			{50_001, 40},
			{50_000, 30},
			{25_001, 30},
			{25_000, 20},
			{1, 20},
		}
		for _, c := range cases {
			in := base
			in.TotalFunding = c.total
			So(scoring.Score(in).Score, ShouldEqual, c.want)
		}
	})

	Convey("Given each service category", t, func() {
		points := map[model.ServiceCategory]int{
			model.ServiceVoice:               15,
			model.ServiceBothTelecomInternet: 15,
			model.ServiceData:                10,
			model.ServiceTelecomOnly:         5,
			model.ServiceOther:               0,
			model.ServiceUnknown:             0,
		}
		for c, p := range points {
			r := scoring.Score(scoring.Input{ServiceCategory: c, HasHistory: true})
			So(r.Score, ShouldEqual, 10+p)
		}
	})

	Convey("Given an out-of-range year count", t, func() {
		r := scoring.Score(scoring.Input{YearsWithFunding: 7, HasHistory: true, TotalFunding: 1})
		So(r.Score, ShouldEqual, 10+30+10)
	})

	Convey("Given identical inputs", t, func() {
		in := scoring.Input{TotalFunding: 60_000, YearsWithFunding: 2, ServiceCategory: model.ServiceData, HasHistory: true}
		So(scoring.Score(in), ShouldResemble, scoring.Score(in))
	})
}

func TestLabel(t *testing.T) {
	Convey("Given scores at the label boundaries", t, func() {
		So(scoring.Label(70), ShouldEqual, model.PriorityHigh)
		So(scoring.Label(69), ShouldEqual, model.PriorityMedium)
		So(scoring.Label(40), ShouldEqual, model.PriorityMedium)
		So(scoring.Label(39), ShouldEqual, model.PriorityLow)
		So(scoring.Label(0), ShouldEqual, model.PriorityLow)
	})
}
