// Package edge compares a projection with a market line and recommends plays.
package edge

import (
	"fmt"
	"math"
)

// Play kinds.
const (
	PlayHome  = "HOME"
	PlayAway  = "AWAY"
	PlayOver  = "OVER"
	PlayUnder = "UNDER"
	NoBet     = "NO BET"
)

const (
	defaultSpreadThreshold = 1.5
	defaultTotalThreshold  = 2.0
	defaultReference       = 6.0
	minConfidence          = 1
	maxConfidence          = 10
)

// Input is the projected score the market is compared with.
type Input struct {
	AwayName   string
	HomeName   string
	AwayPoints float64
	HomePoints float64
}

// Market holds the book lines. SpreadHome is home-relative and negative when
// the home side is favored.
type Market struct {
	SpreadHome *float64 `json:"spreadHome,omitempty"`
	Total      *float64 `json:"total,omitempty"`
}

// Empty reports whether no line was supplied.
func (m Market) Empty() bool {
	return m.SpreadHome == nil && m.Total == nil
}

// Play is one recommendation. Label carries the line, e.g. "Duke -5.5".
type Play struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// Evaluation is the comparison result. Edges and plays are nil when their
// line was not supplied; Confidence is nil in model-only mode.
type Evaluation struct {
	ModelTotal      float64  `json:"modelTotal"`
	ModelSpreadHome float64  `json:"modelSpreadHome"`
	TotalEdge       *float64 `json:"totalEdge,omitempty"`
	SpreadEdge      *float64 `json:"spreadEdge,omitempty"`
	TotalPlay       *Play    `json:"totalPlay,omitempty"`
	SpreadPlay      *Play    `json:"spreadPlay,omitempty"`
	Confidence      *int     `json:"confidence,omitempty"`
	ModelOnly       bool     `json:"modelOnly"`
}

// Evaluator classifies edges against fixed thresholds.
type Evaluator struct {
	spreadThreshold float64
	totalThreshold  float64
	reference       float64
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithSpreadThreshold sets the minimum spread edge for a side play.
func WithSpreadThreshold(th float64) Option {
	return func(e *Evaluator) {
		if th >= 0 {
			e.spreadThreshold = th
		}
	}
}

// WithTotalThreshold sets the minimum total edge for an over/under play.
func WithTotalThreshold(th float64) Option {
	return func(e *Evaluator) {
		if th >= 0 {
			e.totalThreshold = th
		}
	}
}

// WithConfidenceReference sets the edge that maps to full confidence.
func WithConfidenceReference(ref float64) Option {
	return func(e *Evaluator) {
		if ref > 0 {
			e.reference = ref
		}
	}
}

// New creates an Evaluator with the documented thresholds.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		spreadThreshold: defaultSpreadThreshold,
		totalThreshold:  defaultTotalThreshold,
		reference:       defaultReference,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate compares in with the market. The book spread is converted to the
// model's sign before differencing: bookHomeEdge = -SpreadHome.
func (e *Evaluator) Evaluate(in Input, m Market) Evaluation {
	ev := Evaluation{
		ModelTotal:      in.HomePoints + in.AwayPoints,
		ModelSpreadHome: in.HomePoints - in.AwayPoints,
	}
	if m.Empty() {
		ev.ModelOnly = true
		return ev
	}

	maxEdge := 0.0
	if m.Total != nil {
		edge := ev.ModelTotal - *m.Total
		ev.TotalEdge = &edge
		ev.TotalPlay = e.totalPlay(edge, *m.Total)
		maxEdge = math.Max(maxEdge, math.Abs(edge))
	}
	if m.SpreadHome != nil {
		edge := ev.ModelSpreadHome - (-*m.SpreadHome)
		ev.SpreadEdge = &edge
		ev.SpreadPlay = e.spreadPlay(edge, *m.SpreadHome, in)
		maxEdge = math.Max(maxEdge, math.Abs(edge))
	}
	c := e.confidence(maxEdge)
	ev.Confidence = &c
	return ev
}

func (e *Evaluator) totalPlay(edge, total float64) *Play {
	switch {
	case edge >= e.totalThreshold:
		return &Play{Kind: PlayOver, Label: fmt.Sprintf("%s %.1f", PlayOver, total)}
	case edge <= -e.totalThreshold:
		return &Play{Kind: PlayUnder, Label: fmt.Sprintf("%s %.1f", PlayUnder, total)}
	default:
		return &Play{Kind: NoBet, Label: NoBet}
	}
}

func (e *Evaluator) spreadPlay(edge, spreadHome float64, in Input) *Play {
	switch {
	case edge >= e.spreadThreshold:
		return &Play{Kind: PlayHome, Label: fmt.Sprintf("%s %+.1f", in.HomeName, spreadHome)}
	case edge <= -e.spreadThreshold:
		return &Play{Kind: PlayAway, Label: fmt.Sprintf("%s %+.1f", in.AwayName, -spreadHome)}
	default:
		return &Play{Kind: NoBet, Label: NoBet}
	}
}

// confidence maps the largest absolute edge onto 1..10.
func (e *Evaluator) confidence(maxEdge float64) int {
	if !(maxEdge >= 0) { // NaN
		return minConfidence
	}
	c := int(math.Round(1 + 9*math.Min(maxEdge/e.reference, 1)))
	return max(minConfidence, min(c, maxConfidence))
}
