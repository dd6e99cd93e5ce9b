package rating

import "maps"

// SourceFragments is one feed's extraction result.
type SourceFragments struct {
	Source    string
	Fragments map[string]Fragment
}

// TeamRating is the merged record for one team. Missing stats are absent
// from Stats; they are never stored as zero or NaN.
type TeamRating struct {
	Name string
	Key  string
	// Stats holds finite values only.
	Stats map[Stat]float64
	// Sources records which feed supplied each stat.
	Sources map[Stat]string
}

// Value returns the team's own value for s.
func (t *TeamRating) Value(s Stat) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.Stats[s]
	return v, ok
}

// Has reports whether the team carries any of stats.
func (t *TeamRating) Has(stats ...Stat) bool {
	for _, s := range stats {
		if _, ok := t.Value(s); ok {
			return true
		}
	}
	return false
}

func (t *TeamRating) clone() *TeamRating {
	return &TeamRating{Name: t.Name, Key: t.Key, Stats: maps.Clone(t.Stats), Sources: maps.Clone(t.Sources)}
}

// Merge unions the keys of every source. Sources are ranked by position:
// when two carry the same stat for a team the earlier one wins, and the
// display name comes from the first source that lists the team.
func Merge(sources []SourceFragments) map[string]*TeamRating {
	out := make(map[string]*TeamRating)
	for _, src := range sources {
		for key, frag := range src.Fragments {
			t, ok := out[key]
			if !ok {
				t = &TeamRating{Name: frag.Name, Key: key, Stats: map[Stat]float64{}, Sources: map[Stat]string{}}
				out[key] = t
			}
			for stat, v := range frag.Values {
				if _, taken := t.Stats[stat]; taken {
					continue
				}
				t.Stats[stat] = v
				t.Sources[stat] = src.Source
			}
		}
	}
	return out
}
