// Package rating turns tabular feed rows into per-team ratings, merges the
// sources into one record per team and computes league baselines.
package rating

import (
	"fmt"
	"strings"
)

// Stat names one tracked team statistic.
type Stat string

const (
	Tempo  Stat = "tempo"   // possessions per game
	AdjO   Stat = "adj_o"   // adjusted offensive rating, per 100 possessions
	AdjD   Stat = "adj_d"   // adjusted defensive rating, per 100 possessions
	OffEff Stat = "off_eff" // offensive efficiency, per 100 possessions
	DefEff Stat = "def_eff" // defensive efficiency, per 100 possessions
	OffEFG Stat = "off_efg" // effective field-goal rate
	OffReb Stat = "off_reb" // offensive rebound rate
	DefReb Stat = "def_reb" // defensive rebound rate
	TOV    Stat = "tov"     // turnovers per possession
)

var allStats = []Stat{Tempo, AdjO, AdjD, OffEff, DefEff, OffEFG, OffReb, DefReb, TOV} //nolint:gochecknoglobals // fixed enumeration

// defaults are used when no team in a dataset carries a stat.
var defaults = map[Stat]float64{ //nolint:gochecknoglobals // fixed table
	Tempo:  68.0,
	AdjO:   105.0,
	AdjD:   105.0,
	OffEff: 105.0,
	DefEff: 105.0,
	OffEFG: 0.51,
	OffReb: 0.30,
	DefReb: 0.70,
	TOV:    0.18,
}

// Stats lists every tracked stat in a stable order.
func Stats() []Stat {
	out := make([]Stat, len(allStats))
	copy(out, allStats)
	return out
}

// ParseStat accepts a stat name in any case.
func ParseStat(s string) (Stat, error) {
	st := Stat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := defaults[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStat, s)
	}
	return st, nil
}

// DefaultValue is the documented constant for s.
func DefaultValue(s Stat) float64 {
	return defaults[s]
}

// Key is the lookup identity of a team name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Aliases maps alternate team keys to canonical keys.
type Aliases map[string]string

// NewAliases normalizes both sides of m.
func NewAliases(m map[string]string) Aliases {
	a := make(Aliases, len(m))
	for from, to := range m {
		if k := Key(from); k != "" && Key(to) != "" {
			a[k] = Key(to)
		}
	}
	return a
}

// Key returns the canonical key for name.
func (a Aliases) Key(name string) string {
	k := Key(name)
	if canon, ok := a[k]; ok {
		return canon
	}
	return k
}
