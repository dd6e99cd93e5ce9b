// Package resolve maps free-text team names onto dataset records.
package resolve

import (
	"strings"

	"github.com/okian/courtline/internal/domain/rating"
)

// Resolver matches queries by exact key, then unique prefix, then unique
// substring. More than one candidate at a tier is an error, never a guess.
type Resolver struct {
	aliases rating.Aliases
}

// New creates a Resolver that canonicalizes queries through aliases.
func New(aliases rating.Aliases) *Resolver {
	return &Resolver{aliases: aliases}
}

// Resolve finds the team query names in ds.
func (r *Resolver) Resolve(query string, ds *rating.Dataset) (*rating.TeamRating, error) {
	if ds.Len() == 0 {
		return nil, rating.ErrEmptyDataset
	}
	key := r.aliases.Key(query)
	if key == "" {
		return nil, &Error{Query: query, Kind: ErrTeamNotFound}
	}
	if t, ok := ds.Team(key); ok {
		return t, nil
	}

	keys := ds.Keys()
	for _, match := range []func(string, string) bool{strings.HasPrefix, strings.Contains} {
		var hits []string
		for _, k := range keys {
			if match(k, key) {
				hits = append(hits, k)
			}
		}
		switch len(hits) {
		case 0:
			continue
		case 1:
			t, _ := ds.Team(hits[0])
			return t, nil
		default:
			names := make([]string, len(hits))
			for i, k := range hits {
				t, _ := ds.Team(k)
				names[i] = t.Name
			}
			return nil, &Error{Query: query, Candidates: names, Kind: ErrAmbiguousTeamName}
		}
	}
	return nil, &Error{Query: query, Kind: ErrTeamNotFound}
}
