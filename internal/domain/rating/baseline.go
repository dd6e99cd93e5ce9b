package rating

import (
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Baseline holds league means per stat.
type Baseline struct {
	Means map[Stat]float64
	// Observed counts the teams that contributed to each mean.
	Observed map[Stat]int
}

// NewBaseline averages every stat over the teams with a finite value.
// Stats nobody carries take their documented constant.
func NewBaseline(teams map[string]*TeamRating) Baseline {
	keys := slices.Sorted(maps.Keys(teams))
	b := Baseline{Means: make(map[Stat]float64, len(allStats)), Observed: make(map[Stat]int, len(allStats))}
	for _, s := range allStats {
		xs := make([]float64, 0, len(keys))
		for _, k := range keys {
			if v, ok := teams[k].Value(s); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
				xs = append(xs, v)
			}
		}
		b.Observed[s] = len(xs)
		if len(xs) == 0 {
			b.Means[s] = defaults[s]
			continue
		}
		b.Means[s] = stat.Mean(xs, nil)
	}
	return b
}

// Value is the league mean for s, or its constant when unknown.
func (b Baseline) Value(s Stat) float64 {
	if v, ok := b.Means[s]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return defaults[s]
}

// Has reports whether any team carried s.
func (b Baseline) Has(s Stat) bool {
	return b.Observed[s] > 0
}
