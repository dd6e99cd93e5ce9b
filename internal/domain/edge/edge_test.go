package edge_test

import (
	"testing"

	"github.com/okian/courtline/internal/domain/edge"
	. "github.com/smartystreets/goconvey/convey"
)

func line(v float64) *float64 { return &v }

func TestSpreadSignConvention(t *testing.T) {
	Convey("Given a home favorite of 5.5 and a model margin of 8.0", t, func() {
		e := edge.New()
		in := edge.Input{AwayName: "Kansas", HomeName: "Duke", AwayPoints: 70, HomePoints: 78}

		Convey("When evaluating", func() {
			ev := e.Evaluate(in, edge.Market{SpreadHome: line(-5.5)})

			Convey("Then the edge should be 2.5 and the play the home side", func() {
				So(*ev.SpreadEdge, ShouldEqual, 2.5)
				So(ev.SpreadPlay.Kind, ShouldEqual, edge.PlayHome)
				So(ev.SpreadPlay.Label, ShouldEqual, "Duke -5.5")
				So(ev.ModelSpreadHome, ShouldEqual, 8.0)
			})
		})

		Convey("When the threshold is above the edge", func() {
			ev := edge.New(edge.WithSpreadThreshold(3)).Evaluate(in, edge.Market{SpreadHome: line(-5.5)})

			Convey("Then there should be no bet", func() {
				So(ev.SpreadPlay.Kind, ShouldEqual, edge.NoBet)
			})
		})

		Convey("When the book makes the home side a bigger favorite than the model", func() {
			ev := e.Evaluate(in, edge.Market{SpreadHome: line(-11)})

			Convey("Then the play should be the away side with the inverted line", func() {
				So(*ev.SpreadEdge, ShouldEqual, -3)
				So(ev.SpreadPlay.Kind, ShouldEqual, edge.PlayAway)
				So(ev.SpreadPlay.Label, ShouldEqual, "Kansas +11.0")
			})
		})
	})
}

func TestTotals(t *testing.T) {
	Convey("Given a model total of 148", t, func() {
		e := edge.New()
		in := edge.Input{AwayName: "A", HomeName: "H", AwayPoints: 72, HomePoints: 76}

		cases := []struct {
			total float64
			kind  string
			label string
		}{
			{145, edge.PlayOver, "OVER 145.0"},
			{146, edge.PlayOver, "OVER 146.0"},
			{147, edge.NoBet, edge.NoBet},
			{150, edge.PlayUnder, "UNDER 150.0"},
		}
		for _, tc := range cases {
			ev := e.Evaluate(in, edge.Market{Total: line(tc.total)})
			So(ev.TotalPlay.Kind, ShouldEqual, tc.kind)
			So(ev.TotalPlay.Label, ShouldEqual, tc.label)
			So(ev.SpreadEdge, ShouldBeNil)
		}
	})
}

func TestConfidence(t *testing.T) {
	Convey("Given market lines at varying distance from the model", t, func() {
		e := edge.New()
		in := edge.Input{AwayName: "A", HomeName: "H", AwayPoints: 70, HomePoints: 75}

		cases := []struct {
			total float64
			want  int
		}{
			{145, 1},
			{142, 6},
			{139, 10},
			{100, 10},
		}
		for _, tc := range cases {
			ev := e.Evaluate(in, edge.Market{Total: line(tc.total)})
			So(*ev.Confidence, ShouldEqual, tc.want)
		}

		Convey("Then the larger of the two edges should drive it", func() {
			ev := e.Evaluate(in, edge.Market{Total: line(145), SpreadHome: line(1)})
			So(*ev.SpreadEdge, ShouldEqual, 6)
			So(*ev.Confidence, ShouldEqual, 10)
		})
	})
}

func TestModelOnly(t *testing.T) {
	Convey("Given no market at all", t, func() {
		ev := edge.New().Evaluate(edge.Input{AwayPoints: 70, HomePoints: 75}, edge.Market{})

		Convey("Then the result should be model-only without confidence", func() {
			So(ev.ModelOnly, ShouldBeTrue)
			So(ev.Confidence, ShouldBeNil)
			So(ev.TotalPlay, ShouldBeNil)
			So(ev.SpreadPlay, ShouldBeNil)
			So(ev.ModelTotal, ShouldEqual, 145)
		})
	})
}
