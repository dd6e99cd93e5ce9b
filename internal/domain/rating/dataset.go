package rating

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// SourceStatus reports how one feed fared in the load that built a dataset.
type SourceStatus struct {
	Name      string    `json:"name"`
	Teams     int       `json:"teams"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Dataset is an immutable snapshot of merged ratings and their baseline.
// It is replaced wholesale on refresh and never mutated.
type Dataset struct {
	teams    map[string]*TeamRating
	keys     []string
	baseline Baseline
	loadedAt time.Time
	sources  []SourceStatus
}

// NewDataset copies teams and computes the baseline.
func NewDataset(teams map[string]*TeamRating, sources []SourceStatus, loadedAt time.Time) *Dataset {
	own := make(map[string]*TeamRating, len(teams))
	for k, t := range teams {
		if t != nil {
			own[k] = t.clone()
		}
	}
	keys := slices.Collect(maps.Keys(own))
	slices.SortFunc(keys, func(a, b string) int {
		return strings.Compare(strings.ToLower(own[a].Name), strings.ToLower(own[b].Name))
	})
	return &Dataset{
		teams:    own,
		keys:     keys,
		baseline: NewBaseline(own),
		loadedAt: loadedAt,
		sources:  slices.Clone(sources),
	}
}

// Len is the number of teams; a nil dataset is empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.teams)
}

// Team looks up a team by key.
func (d *Dataset) Team(key string) (*TeamRating, bool) {
	if d == nil {
		return nil, false
	}
	t, ok := d.teams[key]
	return t, ok
}

// Keys returns team keys ordered by display name.
func (d *Dataset) Keys() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

// Names returns display names in sorted order.
func (d *Dataset) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.keys))
	for i, k := range d.keys {
		names[i] = d.teams[k].Name
	}
	return names
}

// Baseline is the dataset's league baseline.
func (d *Dataset) Baseline() Baseline {
	if d == nil {
		return NewBaseline(nil)
	}
	return d.baseline
}

// LoadedAt is when the dataset was built.
func (d *Dataset) LoadedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.loadedAt
}

// Sources reports per-feed load results.
func (d *Dataset) Sources() []SourceStatus {
	if d == nil {
		return nil
	}
	return slices.Clone(d.sources)
}
