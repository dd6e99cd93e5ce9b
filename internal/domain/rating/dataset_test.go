package rating_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/courtline/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMerge(t *testing.T) {
	Convey("Given fragments from two sources", t, func() {
		sources := []rating.SourceFragments{
			{Source: "kenpom", Fragments: map[string]rating.Fragment{
				"duke":   {Name: "Duke", Values: map[rating.Stat]float64{rating.AdjO: 120, rating.Tempo: 67}},
				"kansas": {Name: "Kansas", Values: map[rating.Stat]float64{rating.AdjO: 115}},
			}},
			{Source: "off_eff", Fragments: map[string]rating.Fragment{
				"duke":    {Name: "DUKE", Values: map[rating.Stat]float64{rating.OffEff: 118, rating.AdjO: 99}},
				"gonzaga": {Name: "Gonzaga", Values: map[rating.Stat]float64{rating.OffEff: 117}},
			}},
		}

		Convey("When merging", func() {
			teams := rating.Merge(sources)

			Convey("Then every key should be present", func() {
				So(len(teams), ShouldEqual, 3)
			})

			Convey("Then the earlier source should win conflicts and name the team", func() {
				duke := teams["duke"]
				So(duke.Name, ShouldEqual, "Duke")
				So(duke.Stats[rating.AdjO], ShouldEqual, 120)
				So(duke.Sources[rating.AdjO], ShouldEqual, "kenpom")
				So(duke.Stats[rating.OffEff], ShouldEqual, 118)
				So(duke.Sources[rating.OffEff], ShouldEqual, "off_eff")
			})

			Convey("Then a team missing from one source should lack its fields", func() {
				So(teams["gonzaga"].Has(rating.AdjO, rating.Tempo), ShouldBeFalse)
				v, ok := teams["gonzaga"].Value(rating.OffEff)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 117)
			})
		})
	})
}

func TestBaseline(t *testing.T) {
	Convey("Given merged teams", t, func() {
		teams := map[string]*rating.TeamRating{
			"a": {Name: "A", Key: "a", Stats: map[rating.Stat]float64{rating.AdjO: 110, rating.OffEFG: 0.50}},
			"b": {Name: "B", Key: "b", Stats: map[rating.Stat]float64{rating.AdjO: 100, rating.OffEFG: math.NaN()}},
			"c": {Name: "C", Key: "c", Stats: map[rating.Stat]float64{}},
		}

		Convey("When computing the baseline", func() {
			b := rating.NewBaseline(teams)

			Convey("Then means should cover finite values only", func() {
				So(b.Value(rating.AdjO), ShouldEqual, 105)
				So(b.Observed[rating.AdjO], ShouldEqual, 2)
				So(b.Value(rating.OffEFG), ShouldEqual, 0.50)
				So(b.Observed[rating.OffEFG], ShouldEqual, 1)
			})

			Convey("Then unobserved stats should take their constants", func() {
				So(b.Has(rating.Tempo), ShouldBeFalse)
				So(b.Value(rating.Tempo), ShouldEqual, 68)
				So(b.Value(rating.DefReb), ShouldEqual, 0.70)
				So(b.Value(rating.TOV), ShouldEqual, 0.18)
			})
		})

		Convey("When the league is empty", func() {
			b := rating.NewBaseline(nil)

			Convey("Then no stat should be NaN", func() {
				for _, s := range rating.Stats() {
					So(math.IsNaN(b.Value(s)), ShouldBeFalse)
					So(b.Value(s), ShouldEqual, rating.DefaultValue(s))
				}
			})
		})
	})
}

func TestDataset(t *testing.T) {
	Convey("Given merged teams", t, func() {
		teams := map[string]*rating.TeamRating{
			"kansas": {Name: "Kansas", Key: "kansas", Stats: map[rating.Stat]float64{rating.AdjO: 115}},
			"duke":   {Name: "Duke", Key: "duke", Stats: map[rating.Stat]float64{rating.AdjO: 120}},
		}
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ds := rating.NewDataset(teams, []rating.SourceStatus{{Name: "kenpom", Teams: 2}}, at)

		Convey("Then it should expose sorted names and the baseline", func() {
			So(ds.Len(), ShouldEqual, 2)
			So(ds.Names(), ShouldResemble, []string{"Duke", "Kansas"})
			So(ds.Keys(), ShouldResemble, []string{"duke", "kansas"})
			So(ds.Baseline().Value(rating.AdjO), ShouldEqual, 117.5)
			So(ds.LoadedAt(), ShouldEqual, at)
			So(ds.Sources()[0].Name, ShouldEqual, "kenpom")
		})

		Convey("When the input map is changed after construction", func() {
			teams["duke"].Stats[rating.AdjO] = 1
			delete(teams, "kansas")

			Convey("Then the dataset should be unaffected", func() {
				duke, ok := ds.Team("duke")
				So(ok, ShouldBeTrue)
				So(duke.Stats[rating.AdjO], ShouldEqual, 120)
				So(ds.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the dataset is nil", func() {
			var empty *rating.Dataset

			Convey("Then accessors should be safe", func() {
				So(empty.Len(), ShouldEqual, 0)
				_, ok := empty.Team("duke")
				So(ok, ShouldBeFalse)
				So(empty.Baseline().Value(rating.AdjO), ShouldEqual, 105)
			})
		})
	})
}

func TestParseStat(t *testing.T) {
	Convey("Given stat names", t, func() {
		s, err := rating.ParseStat(" OFF_EFG ")
		So(err, ShouldBeNil)
		So(s, ShouldEqual, rating.OffEFG)

		_, err = rating.ParseStat("pace")
		So(errors.Is(err, rating.ErrUnknownStat), ShouldBeTrue)
	})
}
