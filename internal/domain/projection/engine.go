// Package projection converts two teams' ratings into possessions,
// points per possession and a deterministic score.
package projection

import (
	"math"
	"slices"

	"github.com/okian/courtline/internal/domain/rating"
)

// Field is a model input filled through the fallback policy.
type Field string

const (
	FieldTempo   Field = "tempo"
	FieldOffense Field = "offense"
	FieldDefense Field = "defense"
)

// SourceBaseline marks a value taken from the league baseline.
const SourceBaseline = "baseline"

// Params are the engine hyperparameters.
type Params struct {
	// LeagueRating is the league-average rating L, per 100 possessions.
	LeagueRating float64
	// LeagueTempo is used when no tempo is known and as the shrink target.
	LeagueTempo    float64
	HomeEdgePoints float64
	WeightEFG      float64
	WeightTOV      float64
	WeightREB      float64
	// AnchorWeight is the exponent on the efficiency anchor terms.
	AnchorWeight float64
	// Damping is the exponent applied to each side's combined multiplier.
	Damping float64
	PPPMin  float64
	PPPMax  float64
	// TempoShrink in [0, 1] pulls possessions toward LeagueTempo.
	TempoShrink float64
	Epsilon     float64
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		LeagueRating:   105.0,
		LeagueTempo:    68.0,
		HomeEdgePoints: 3.0,
		WeightEFG:      0.40,
		WeightTOV:      0.25,
		WeightREB:      0.20,
		AnchorWeight:   0.5,
		Damping:        0.5,
		PPPMin:         0.75,
		PPPMax:         1.45,
		Epsilon:        1e-6,
	}
}

// Policy ranks the stats that may fill each primary field.
type Policy struct {
	Tempo         []rating.Stat
	Offense       []rating.Stat
	Defense       []rating.Stat
	AllowBaseline bool
}

// Notice reports a substituted value.
type Notice struct {
	Team   string  `json:"team"`
	Field  string  `json:"field"`
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

// Side is one team's resolved inputs and adjusted scoring rate.
type Side struct {
	Team      string  `json:"team"`
	Tempo     float64 `json:"tempo"`
	Offense   float64 `json:"offense"`
	Defense   float64 `json:"defense"`
	BasePPP   float64 `json:"basePpp"`
	Factor    float64 `json:"factor"`
	PPP       float64 `json:"ppp"`
	offSource rating.Stat
	defSource rating.Stat
}

// Matchup is the engine output for one game.
type Matchup struct {
	Possessions float64  `json:"possessions"`
	Away        Side     `json:"away"`
	Home        Side     `json:"home"`
	Notices     []Notice `json:"notices,omitempty"`
}

// Score is a projected final score.
type Score struct {
	Away float64 `json:"away"`
	Home float64 `json:"home"`
}

// Engine projects matchups. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	params Params
	policy Policy
}

// New creates an Engine with default parameters and policy.
func New(opts ...Option) *Engine {
	e := &Engine{params: DefaultParams(), policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns the engine hyperparameters.
func (e *Engine) Params() Params { return e.params }

// Project computes possessions and clamped points per possession for both sides.
func (e *Engine) Project(away, home *rating.TeamRating, baseline rating.Baseline) (Matchup, error) {
	if away == nil || home == nil {
		return Matchup{}, ErrTeamNotFound
	}
	if away.Key == home.Key {
		return Matchup{}, ErrSameTeam
	}

	var m Matchup
	var err error
	if m.Away, err = e.side(away, baseline, &m.Notices); err != nil {
		return Matchup{}, err
	}
	if m.Home, err = e.side(home, baseline, &m.Notices); err != nil {
		return Matchup{}, err
	}

	m.Possessions = e.possessions(m.Away.Tempo, m.Home.Tempo)

	m.Away.BasePPP = e.basePPP(m.Away.Offense, m.Home.Defense)
	m.Home.BasePPP = e.basePPP(m.Home.Offense, m.Away.Defense)

	m.Away.Factor = e.factor(away, &m.Away, home, &m.Home, baseline, &m.Notices)
	m.Home.Factor = e.factor(home, &m.Home, away, &m.Away, baseline, &m.Notices)

	m.Away.PPP = e.clamp(m.Away.BasePPP * m.Away.Factor)
	m.Home.PPP = e.clamp(m.Home.BasePPP * m.Home.Factor)
	return m, nil
}

// Describe fills one team's tempo, offense and defense the way Project does,
// without an opponent. Rate fields are left zero.
func (e *Engine) Describe(t *rating.TeamRating, baseline rating.Baseline) (Side, []Notice, error) {
	if t == nil {
		return Side{}, nil, ErrTeamNotFound
	}
	var notices []Notice
	s, err := e.side(t, baseline, &notices)
	if err != nil {
		return Side{}, nil, err
	}
	return s, notices, nil
}

// Score multiplies rates by possessions and adds the home edge. It never
// returns a non-finite value.
func (e *Engine) Score(possessions, pppAway, pppHome, homeEdge float64) Score {
	if !finite(possessions) {
		possessions = e.params.LeagueTempo
	}
	league := e.params.LeagueRating / 100
	if !finite(pppAway) {
		pppAway = league
	}
	if !finite(pppHome) {
		pppHome = league
	}
	if !finite(homeEdge) {
		homeEdge = 0
	}
	return Score{Away: pppAway * possessions, Home: pppHome*possessions + homeEdge}
}

func (e *Engine) side(t *rating.TeamRating, baseline rating.Baseline, notices *[]Notice) (Side, error) {
	s := Side{Team: t.Name}
	var err error
	if s.Tempo, _, err = e.fill(t, FieldTempo, e.policy.Tempo, e.params.LeagueTempo, baseline, notices); err != nil {
		return Side{}, err
	}
	if s.Offense, s.offSource, err = e.fill(t, FieldOffense, e.policy.Offense, e.params.LeagueRating, baseline, notices); err != nil {
		return Side{}, err
	}
	if s.Defense, s.defSource, err = e.fill(t, FieldDefense, e.policy.Defense, e.params.LeagueRating, baseline, notices); err != nil {
		return Side{}, err
	}
	return s, nil
}

// fill walks the ranked stats for field, then the baseline. Any value other
// than the first-ranked stat is reported.
func (e *Engine) fill(t *rating.TeamRating, field Field, ranked []rating.Stat, league float64, baseline rating.Baseline, notices *[]Notice) (float64, rating.Stat, error) {
	for i, st := range ranked {
		v, ok := t.Value(st)
		if !ok || !finite(v) {
			continue
		}
		if i > 0 {
			*notices = append(*notices, Notice{Team: t.Name, Field: string(field), Source: string(st), Value: v})
		}
		return v, st, nil
	}
	if !e.policy.AllowBaseline {
		return 0, "", &DataError{Team: t.Name, Field: field}
	}
	v := league
	if len(ranked) > 0 && baseline.Has(ranked[0]) {
		v = baseline.Value(ranked[0])
	}
	*notices = append(*notices, Notice{Team: t.Name, Field: string(field), Source: SourceBaseline, Value: v})
	return v, "", nil
}

func (e *Engine) possessions(awayTempo, homeTempo float64) float64 {
	p := 0.5 * (awayTempo + homeTempo)
	if !finite(p) || p <= 0 {
		p = e.params.LeagueTempo
	}
	if s := e.params.TempoShrink; s > 0 {
		p = (1-s)*p + s*e.params.LeagueTempo
	}
	return p
}

// basePPP is the opponent-adjusted rate: (L/100) * (off/L) * (L/def).
func (e *Engine) basePPP(offense, defense float64) float64 {
	l := e.params.LeagueRating
	return (l / 100) * (offense / l) * (l / math.Max(defense, e.params.Epsilon))
}

// factor combines the side's shooting, ball security and offensive
// rebounding with the opponent's defensive efficiency and defensive
// rebounding, each relative to the league. Missing ratios are neutral, so a
// matchup without ratio data gets exactly 1.
func (e *Engine) factor(team *rating.TeamRating, side *Side, opp *rating.TeamRating, oppSide *Side, baseline rating.Baseline, notices *[]Notice) float64 {
	p := e.params
	off, def := 1.0, 1.0

	if side.offSource != rating.OffEff {
		if v, ok := e.ratio(team, rating.OffEff, baseline, notices); ok {
			off *= math.Pow(e.div(v, baseline.Value(rating.OffEff)), p.AnchorWeight)
		}
	}
	if v, ok := e.ratio(team, rating.OffEFG, baseline, notices); ok {
		off *= math.Pow(e.div(v, baseline.Value(rating.OffEFG)), p.WeightEFG)
	}
	if v, ok := e.ratio(team, rating.TOV, baseline, notices); ok {
		off *= math.Pow(e.div(1-v, 1-baseline.Value(rating.TOV)), p.WeightTOV)
	}
	if v, ok := e.ratio(team, rating.OffReb, baseline, notices); ok {
		off *= math.Pow(e.div(v, baseline.Value(rating.OffReb)), p.WeightREB)
	}

	if oppSide.defSource != rating.DefEff {
		if v, ok := e.ratio(opp, rating.DefEff, baseline, notices); ok {
			def *= math.Pow(e.div(baseline.Value(rating.DefEff), v), p.AnchorWeight)
		}
	}
	if v, ok := e.ratio(opp, rating.DefReb, baseline, notices); ok {
		def *= math.Pow(e.div(baseline.Value(rating.DefReb), v), p.WeightREB)
	}

	if off == 1 && def == 1 {
		return 1
	}
	f := math.Pow(off, p.Damping) * math.Pow(def, p.Damping)
	if !finite(f) {
		return 1
	}
	return f
}

// ratio returns the team's value for a secondary stat. A missing value
// falls back to the league mean when one exists, which makes its term
// neutral; with no league data at all the term is skipped.
func (e *Engine) ratio(t *rating.TeamRating, st rating.Stat, baseline rating.Baseline, notices *[]Notice) (float64, bool) {
	if v, ok := t.Value(st); ok && finite(v) {
		return v, true
	}
	if !baseline.Has(st) {
		return 0, false
	}
	v := baseline.Value(st)
	if !slices.ContainsFunc(*notices, func(n Notice) bool { return n.Team == t.Name && n.Field == string(st) }) {
		*notices = append(*notices, Notice{Team: t.Name, Field: string(st), Source: SourceBaseline, Value: v})
	}
	return v, true
}

func (e *Engine) div(num, den float64) float64 {
	return math.Max(num, e.params.Epsilon) / math.Max(den, e.params.Epsilon)
}

func (e *Engine) clamp(ppp float64) float64 {
	if !finite(ppp) {
		ppp = e.params.LeagueRating / 100
	}
	return math.Min(math.Max(ppp, e.params.PPPMin), e.params.PPPMax)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
