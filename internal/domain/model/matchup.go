// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/courtline/internal/domain/edge"
	"github.com/okian/courtline/internal/domain/projection"
	"github.com/okian/courtline/internal/domain/rating"
	"github.com/okian/courtline/internal/domain/simulation"
)

// MatchupRequest is one projection request. Team names are free text and are
// resolved against the loaded dataset.
type MatchupRequest struct {
	Away       string   `json:"away"`
	Home       string   `json:"home"`
	SpreadHome *float64 `json:"spreadHome,omitempty"` // home-relative, negative when home is favored
	Total      *float64 `json:"total,omitempty"`
	Simulate   *bool    `json:"simulate,omitempty"` // nil uses the configured default
	Samples    int      `json:"samples,omitempty"`  // zero uses the configured default
}

// Market returns the request's lines in evaluator form.
func (r MatchupRequest) Market() edge.Market {
	return edge.Market{SpreadHome: r.SpreadHome, Total: r.Total}
}

// MatchupResult is the full outcome of one projection.
type MatchupResult struct {
	Away         string              `json:"away"`
	Home         string              `json:"home"`
	HomeEdge     float64             `json:"homeEdge"`
	Matchup      projection.Matchup  `json:"matchup"`
	Score        projection.Score    `json:"score"`
	Distribution *simulation.Summary `json:"distribution,omitempty"`
	Market       edge.Market         `json:"market"`
	Evaluation   edge.Evaluation     `json:"evaluation"`
	ComputedAt   time.Time           `json:"computedAt"`
}

// Simulated reports whether a distribution is attached.
func (r *MatchupResult) Simulated() bool {
	return r != nil && r.Distribution != nil
}

// BatchItem is one entry of a batch response; either Result or Error is set.
type BatchItem struct {
	Result *MatchupResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Kind   string         `json:"kind,omitempty"`
}

// TeamView is a resolved team with the values a projection would use.
type TeamView struct {
	Name      string                  `json:"name"`
	Key       string                  `json:"key"`
	Stats     map[rating.Stat]float64 `json:"stats"`
	Sources   map[rating.Stat]string  `json:"sources"`
	Effective projection.Side         `json:"effective"`
	Notices   []projection.Notice     `json:"notices,omitempty"`
}
