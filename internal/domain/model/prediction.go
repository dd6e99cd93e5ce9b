package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Prediction is a saved, flattened MatchupResult.
type Prediction struct {
	Seq       uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ID        string    `gorm:"uniqueIndex;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Away       string   `json:"away"`
	Home       string   `json:"home"`
	BookSpread *float64 `json:"bookSpreadHome,omitempty"`
	BookTotal  *float64 `json:"bookTotal,omitempty"`

	AwayPoints  float64 `json:"modelAwayPoints"`
	HomePoints  float64 `json:"modelHomePoints"`
	ModelTotal  float64 `json:"modelTotal"`
	ModelSpread float64 `json:"modelSpreadHome"`

	TotalEdge  *float64 `json:"totalEdge,omitempty"`
	SpreadEdge *float64 `json:"spreadEdge,omitempty"`
	TotalPlay  string   `json:"totalsPlay,omitempty"`
	SpreadPlay string   `json:"spreadPlay,omitempty"`

	HomeWinPct *float64 `json:"homeWinPct,omitempty"`
	AwayWinPct *float64 `json:"awayWinPct,omitempty"`
	Confidence *int     `json:"confidence,omitempty"`
	Simulated  bool     `json:"simulated"`
}

// NewPrediction flattens r. Points are the simulated means when a distribution
// exists and the deterministic score otherwise.
func NewPrediction(r MatchupResult) Prediction {
	p := Prediction{
		ID:         uuid.NewString(),
		CreatedAt:  r.ComputedAt,
		Away:       r.Away,
		Home:       r.Home,
		BookSpread: r.Market.SpreadHome,
		BookTotal:  r.Market.Total,
		AwayPoints: r.Score.Away,
		HomePoints: r.Score.Home,
		TotalEdge:  r.Evaluation.TotalEdge,
		SpreadEdge: r.Evaluation.SpreadEdge,
		Confidence: r.Evaluation.Confidence,
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if r.Evaluation.TotalPlay != nil {
		p.TotalPlay = r.Evaluation.TotalPlay.Label
	}
	if r.Evaluation.SpreadPlay != nil {
		p.SpreadPlay = r.Evaluation.SpreadPlay.Label
	}
	if d := r.Distribution; d != nil {
		p.Simulated = true
		p.AwayPoints = d.AwayMean
		p.HomePoints = d.HomeMean
		home := round1(100 * d.HomeWinProb)
		away := round1(100 * d.AwayWinProb)
		p.HomeWinPct, p.AwayWinPct = &home, &away
	}
	p.ModelTotal = r.Evaluation.ModelTotal
	p.ModelSpread = r.Evaluation.ModelSpreadHome
	return p
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
