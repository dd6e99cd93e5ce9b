package projection_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/courtline/internal/domain/projection"
	"github.com/okian/courtline/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func team(name string, stats map[rating.Stat]float64) *rating.TeamRating {
	return &rating.TeamRating{Name: name, Key: rating.Key(name), Stats: stats, Sources: map[rating.Stat]string{}}
}

func primary(tempo, off, def float64) map[rating.Stat]float64 {
	return map[rating.Stat]float64{rating.Tempo: tempo, rating.AdjO: off, rating.AdjD: def}
}

func TestConcreteScenario(t *testing.T) {
	Convey("Given the reference matchup with no secondary ratios", t, func() {
		e := projection.New()
		away := team("Team A", primary(68, 110, 100))
		home := team("Team B", primary(70, 104, 108))
		baseline := rating.NewBaseline(nil)

		Convey("When projecting", func() {
			m, err := e.Project(away, home, baseline)
			So(err, ShouldBeNil)
			score := e.Score(m.Possessions, m.Away.PPP, m.Home.PPP, e.Params().HomeEdgePoints)

			Convey("Then possessions, rates and score should match the formula", func() {
				So(m.Possessions, ShouldEqual, 69.0)
				So(m.Away.PPP, ShouldAlmostEqual, 1.0694, 1e-4)
				So(m.Home.PPP, ShouldAlmostEqual, 1.092, 1e-9)
				So(score.Away, ShouldAlmostEqual, 73.8, 0.1)
				So(score.Home, ShouldAlmostEqual, 78.3, 0.1)
				So(m.Notices, ShouldBeEmpty)
			})
		})
	})
}

func TestMissingSecondaryData(t *testing.T) {
	Convey("Given teams without any secondary ratios", t, func() {
		e := projection.New()
		away := team("Away", primary(68, 110, 100))
		home := team("Home", primary(70, 104, 108))
		l, oA, dH := 105.0, 110.0, 108.0
		pure := (l / 100) * (oA / l) * (l / dH)

		Convey("When the league has no ratio data either", func() {
			m, err := e.Project(away, home, rating.NewBaseline(nil))

			Convey("Then the factor should be exactly 1 and ppp the pure formula", func() {
				So(err, ShouldBeNil)
				So(m.Away.Factor, ShouldEqual, 1.0)
				So(m.Home.Factor, ShouldEqual, 1.0)
				So(m.Away.PPP, ShouldEqual, pure)
			})
		})

		Convey("When other teams in the league carry ratios", func() {
			league := map[string]*rating.TeamRating{
				"away": away,
				"home": home,
				"other": team("Other", map[rating.Stat]float64{
					rating.OffEFG: 0.55, rating.TOV: 0.15, rating.OffReb: 0.33,
					rating.DefReb: 0.74, rating.OffEff: 115, rating.DefEff: 95,
				}),
			}
			m, err := e.Project(away, home, rating.NewBaseline(league))

			Convey("Then the league means should be neutral and reported", func() {
				So(err, ShouldBeNil)
				So(m.Away.Factor, ShouldEqual, 1.0)
				So(m.Home.Factor, ShouldEqual, 1.0)
				So(m.Away.PPP, ShouldEqual, pure)
				So(len(m.Notices), ShouldBeGreaterThan, 0)
				for _, n := range m.Notices {
					So(n.Source, ShouldEqual, projection.SourceBaseline)
				}
			})
		})
	})
}

func TestPossessionSymmetry(t *testing.T) {
	Convey("Given two teams with different tempos", t, func() {
		e := projection.New()
		a := team("A", primary(61.3, 108, 101))
		b := team("B", primary(73.9, 99, 106))

		Convey("Then possessions should not depend on order", func() {
			ab, err := e.Project(a, b, rating.NewBaseline(nil))
			So(err, ShouldBeNil)
			ba, err := e.Project(b, a, rating.NewBaseline(nil))
			So(err, ShouldBeNil)
			So(ab.Possessions, ShouldEqual, ba.Possessions)
		})
	})
}

func TestMonotonicity(t *testing.T) {
	Convey("Given a baseline matchup", t, func() {
		e := projection.New()
		bl := rating.NewBaseline(nil)
		home := team("Home", primary(68, 105, 105))
		base, err := e.Project(team("Away", primary(68, 105, 105)), home, bl)
		So(err, ShouldBeNil)

		Convey("When the away offense improves", func() {
			m, err := e.Project(team("Away", primary(68, 112, 105)), home, bl)

			Convey("Then the away rate should rise", func() {
				So(err, ShouldBeNil)
				So(m.Away.PPP, ShouldBeGreaterThan, base.Away.PPP)
			})
		})

		Convey("When the home defensive rating rises", func() {
			m, err := e.Project(team("Away", primary(68, 105, 105)), team("Home", primary(68, 105, 112)), bl)

			Convey("Then the away rate should fall", func() {
				So(err, ShouldBeNil)
				So(m.Away.PPP, ShouldBeLessThan, base.Away.PPP)
			})
		})
	})
}

func TestClamp(t *testing.T) {
	Convey("Given pathological ratings", t, func() {
		e := projection.New()
		p := e.Params()
		cases := []struct {
			name     string
			away     map[rating.Stat]float64
			home     map[rating.Stat]float64
			awayWant float64
		}{
			{"zero offense", primary(68, 0, 105), primary(68, 105, 105), p.PPPMin},
			{"huge offense", primary(68, 10000, 105), primary(68, 105, 105), p.PPPMax},
			{"zero opposing defense", primary(68, 105, 105), primary(68, 105, 0), p.PPPMax},
		}
		for _, tc := range cases {
			Convey("When projecting with "+tc.name, func() {
				m, err := e.Project(team("Away", tc.away), team("Home", tc.home), rating.NewBaseline(nil))

				Convey("Then both rates should be finite and inside the clamp", func() {
					So(err, ShouldBeNil)
					So(m.Away.PPP, ShouldEqual, tc.awayWant)
					for _, v := range []float64{m.Away.PPP, m.Home.PPP} {
						So(math.IsNaN(v) || math.IsInf(v, 0), ShouldBeFalse)
						So(v, ShouldBeBetweenOrEqual, p.PPPMin, p.PPPMax)
					}
				})
			})
		}
	})
}

func TestScore(t *testing.T) {
	Convey("Given the deterministic scorer", t, func() {
		e := projection.New()

		Convey("Then the home edge should be additive", func() {
			for _, edge := range []float64{-4, 0, 1.5, 3, 7.25} {
				with := e.Score(69, 1.07, 1.09, edge)
				without := e.Score(69, 1.07, 1.09, 0)
				So(with.Home-without.Home, ShouldAlmostEqual, edge, 1e-9)
				So(with.Away, ShouldEqual, without.Away)
			}
		})

		Convey("When an input is not finite", func() {
			s := e.Score(math.NaN(), math.Inf(1), 1.0, math.NaN())

			Convey("Then the league constants should stand in", func() {
				So(s.Away, ShouldAlmostEqual, 1.05*68, 1e-9)
				So(s.Home, ShouldAlmostEqual, 68, 1e-9)
			})
		})
	})
}

func TestFallbackPolicy(t *testing.T) {
	Convey("Given a team whose rating comes from the efficiency sheet", t, func() {
		e := projection.New()
		away := team("Away", map[rating.Stat]float64{rating.Tempo: 68, rating.OffEff: 120, rating.AdjD: 100})
		home := team("Home", map[rating.Stat]float64{rating.Tempo: 68, rating.AdjO: 104, rating.OffEff: 100, rating.AdjD: 105})
		bl := rating.NewBaseline(map[string]*rating.TeamRating{"away": away, "home": home})

		Convey("When projecting", func() {
			m, err := e.Project(away, home, bl)

			Convey("Then the substitution should be used and reported", func() {
				So(err, ShouldBeNil)
				So(m.Away.Offense, ShouldEqual, 120)
				So(m.Notices, ShouldContain, projection.Notice{Team: "Away", Field: "offense", Source: "off_eff", Value: 120})
			})

			Convey("Then the efficiency anchor should apply only where it is not the base rating", func() {
				So(m.Away.Factor, ShouldEqual, 1.0)
				So(m.Home.Factor, ShouldBeLessThan, 1.0)
			})
		})
	})

	Convey("Given a team without tempo", t, func() {
		away := team("Away", map[rating.Stat]float64{rating.AdjO: 105, rating.AdjD: 105})
		home := team("Home", primary(70, 105, 105))

		Convey("When baseline fallback is allowed", func() {
			e := projection.New()
			bl := rating.NewBaseline(map[string]*rating.TeamRating{"home": home})
			m, err := e.Project(away, home, bl)

			Convey("Then the league mean should fill it with a notice", func() {
				So(err, ShouldBeNil)
				So(m.Away.Tempo, ShouldEqual, 70)
				So(m.Notices, ShouldContain, projection.Notice{Team: "Away", Field: "tempo", Source: projection.SourceBaseline, Value: 70})
			})
		})

		Convey("When no team carries tempo", func() {
			e := projection.New()
			m, err := e.Project(away, team("Home", map[rating.Stat]float64{rating.AdjO: 100, rating.AdjD: 100}), rating.NewBaseline(nil))

			Convey("Then the league tempo constant should be used", func() {
				So(err, ShouldBeNil)
				So(m.Possessions, ShouldEqual, 68)
			})
		})

		Convey("When baseline fallback is disallowed", func() {
			e := projection.New(projection.WithPolicy(projection.Policy{AllowBaseline: false}))
			_, err := e.Project(away, home, rating.NewBaseline(nil))

			Convey("Then it should name the team and field", func() {
				So(errors.Is(err, projection.ErrInsufficientData), ShouldBeTrue)
				var de *projection.DataError
				So(errors.As(err, &de), ShouldBeTrue)
				So(de.Team, ShouldEqual, "Away")
				So(de.Field, ShouldEqual, projection.FieldTempo)
			})
		})
	})
}

func TestSecondaryAdjustment(t *testing.T) {
	Convey("Given a league with ratio data", t, func() {
		e := projection.New()
		ratios := func(efg, tov, oreb, dreb float64) map[rating.Stat]float64 {
			s := primary(68, 105, 105)
			s[rating.OffEFG], s[rating.TOV], s[rating.OffReb], s[rating.DefReb] = efg, tov, oreb, dreb
			return s
		}
		avg := team("Avg", ratios(0.51, 0.18, 0.30, 0.70))
		bl := rating.NewBaseline(map[string]*rating.TeamRating{"avg": avg, "avg2": team("Avg2", ratios(0.51, 0.18, 0.30, 0.70))})

		cases := []struct {
			name string
			away map[rating.Stat]float64
			home map[rating.Stat]float64
			rise bool
		}{
			{"better away shooting", ratios(0.56, 0.18, 0.30, 0.70), ratios(0.51, 0.18, 0.30, 0.70), true},
			{"fewer away turnovers", ratios(0.51, 0.14, 0.30, 0.70), ratios(0.51, 0.18, 0.30, 0.70), true},
			{"more away offensive rebounds", ratios(0.51, 0.18, 0.35, 0.70), ratios(0.51, 0.18, 0.30, 0.70), true},
			{"stronger home defensive rebounding", ratios(0.51, 0.18, 0.30, 0.70), ratios(0.51, 0.18, 0.30, 0.76), false},
		}
		for _, tc := range cases {
			Convey("When the matchup has "+tc.name, func() {
				m, err := e.Project(team("Away", tc.away), team("Home", tc.home), bl)

				Convey("Then the away factor should move accordingly", func() {
					So(err, ShouldBeNil)
					if tc.rise {
						So(m.Away.Factor, ShouldBeGreaterThan, 1.0)
					} else {
						So(m.Away.Factor, ShouldBeLessThan, 1.0)
					}
				})
			})
		}
	})
}

func TestProjectErrors(t *testing.T) {
	Convey("Given the engine", t, func() {
		e := projection.New()
		duke := team("Duke", primary(68, 110, 95))

		Convey("When a team is unresolved", func() {
			_, err := e.Project(nil, duke, rating.NewBaseline(nil))
			So(errors.Is(err, projection.ErrTeamNotFound), ShouldBeTrue)
		})

		Convey("When a team plays itself", func() {
			_, err := e.Project(duke, duke, rating.NewBaseline(nil))
			So(errors.Is(err, projection.ErrSameTeam), ShouldBeTrue)
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given invalid params", t, func() {
		e := projection.New(projection.WithParams(projection.Params{PPPMin: 2, PPPMax: 1}), projection.WithHomeEdge(4))

		Convey("Then the defaults should be kept for the invalid fields", func() {
			p := e.Params()
			So(p.PPPMin, ShouldEqual, 0.75)
			So(p.PPPMax, ShouldEqual, 1.45)
			So(p.LeagueRating, ShouldEqual, 105)
			So(p.Epsilon, ShouldEqual, 1e-6)
			So(p.HomeEdgePoints, ShouldEqual, 4)
		})
	})
}

func TestDescribe(t *testing.T) {
	Convey("Given a team rated only by the efficiency sheet", t, func() {
		e := projection.New()
		tm := team("Solo", map[rating.Stat]float64{rating.OffEff: 101, rating.AdjD: 99})

		Convey("When describing it", func() {
			side, notices, err := e.Describe(tm, rating.NewBaseline(nil))

			Convey("Then the effective values and substitutions should be reported", func() {
				So(err, ShouldBeNil)
				So(side.Offense, ShouldEqual, 101)
				So(side.Defense, ShouldEqual, 99)
				So(side.Tempo, ShouldEqual, 68)
				So(notices, ShouldHaveLength, 2)
				So(side.PPP, ShouldEqual, 0)
			})
		})

		Convey("When the team is nil", func() {
			_, _, err := e.Describe(nil, rating.NewBaseline(nil))
			So(errors.Is(err, projection.ErrTeamNotFound), ShouldBeTrue)
		})
	})
}
