package projection

import "github.com/okian/courtline/internal/domain/rating"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithParams replaces the model hyperparameters. An empty clamp range or a
// non-positive epsilon or league constant keeps the default for that field.
func WithParams(p Params) Option {
	return func(e *Engine) {
		d := DefaultParams()
		if p.LeagueRating <= 0 {
			p.LeagueRating = d.LeagueRating
		}
		if p.LeagueTempo <= 0 {
			p.LeagueTempo = d.LeagueTempo
		}
		if p.PPPMin <= 0 || p.PPPMin >= p.PPPMax {
			p.PPPMin, p.PPPMax = d.PPPMin, d.PPPMax
		}
		if p.Epsilon <= 0 {
			p.Epsilon = d.Epsilon
		}
		e.params = p
	}
}

// WithPolicy sets the ranked fallback sources per field. Empty lists keep the default.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		d := DefaultPolicy()
		if len(p.Tempo) == 0 {
			p.Tempo = d.Tempo
		}
		if len(p.Offense) == 0 {
			p.Offense = d.Offense
		}
		if len(p.Defense) == 0 {
			p.Defense = d.Defense
		}
		e.policy = p
	}
}

// WithHomeEdge overrides the home-court points only.
func WithHomeEdge(points float64) Option {
	return func(e *Engine) {
		e.params.HomeEdgePoints = points
	}
}

// DefaultPolicy is tempo from tempo, offense from adj_o then off_eff,
// defense from adj_d then def_eff, then the league baseline.
func DefaultPolicy() Policy {
	return Policy{
		Tempo:         []rating.Stat{rating.Tempo},
		Offense:       []rating.Stat{rating.AdjO, rating.OffEff},
		Defense:       []rating.Stat{rating.AdjD, rating.DefEff},
		AllowBaseline: true,
	}
}
