// Package report renders a projection as a fixed-width text block.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/okian/courtline/internal/domain/edge"
	"github.com/okian/courtline/internal/domain/model"
)

const nameWidth = 12

// Write renders r. Lines that need a distribution or a market line are
// omitted when those are absent.
func Write(w io.Writer, r *model.MatchupResult) error {
	if r == nil {
		return nil
	}
	away, home := short(r.Away), short(r.Home)
	awayPts, homePts := r.Score.Away, r.Score.Home
	if d := r.Distribution; d != nil {
		awayPts, homePts = d.AwayMean, d.HomeMean
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- GAME SUMMARY: %s @ %s ---\n", r.Away, r.Home)
	fmt.Fprintf(&b, "Projected Score        | %12s: %5.2f  | %12s: %5.2f\n", away, awayPts, home, homePts)
	if d := r.Distribution; d != nil {
		fmt.Fprintf(&b, "Likely Ranges (25-75%%) | %12s: %5.1f-%5.1f | %12s: %5.1f-%5.1f\n",
			away, d.AwayQ25, d.AwayQ75, home, d.HomeQ25, d.HomeQ75)
	}

	winner, margin := r.Home, homePts-awayPts
	if homePts <= awayPts {
		winner, margin = r.Away, awayPts-homePts
	}
	fmt.Fprintf(&b, "Projected Winner       | %s by %.1f\n", winner, margin)
	if d := r.Distribution; d != nil {
		fmt.Fprintf(&b, "Win Probability        | %12s: %4.1f%%  | %12s: %4.1f%%\n",
			away, 100*d.AwayWinProb, home, 100*d.HomeWinProb)
	}

	ev := r.Evaluation
	if r.Market.Total != nil && ev.TotalEdge != nil {
		fmt.Fprintf(&b, "Totals                 | Model: %5.1f  | Book: %5.1f  | Edge: %+4.1f  | Play: %s\n",
			ev.ModelTotal, *r.Market.Total, *ev.TotalEdge, label(ev.TotalPlay))
	} else {
		fmt.Fprintf(&b, "Totals                 | Model: %5.1f\n", ev.ModelTotal)
	}
	if r.Market.SpreadHome != nil && ev.SpreadEdge != nil {
		fmt.Fprintf(&b, "Spread (Home)          | Model: %+4.1f  | Book: %+5.1f | Edge: %+4.1f | Play: %s\n",
			ev.ModelSpreadHome, *r.Market.SpreadHome, *ev.SpreadEdge, label(ev.SpreadPlay))
	} else {
		fmt.Fprintf(&b, "Spread (Home)          | Model: %+4.1f\n", ev.ModelSpreadHome)
	}
	if ev.Confidence != nil {
		fmt.Fprintf(&b, "Confidence             | %d / 10\n", *ev.Confidence)
	}
	for _, n := range r.Matchup.Notices {
		fmt.Fprintf(&b, "Note                   | %s %s from %s (%.3f)\n", n.Team, n.Field, n.Source, n.Value)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String is Write into a string.
func String(r *model.MatchupResult) string {
	var b strings.Builder
	_ = Write(&b, r)
	return b.String()
}

func short(name string) string {
	rs := []rune(name)
	if len(rs) > nameWidth {
		return string(rs[:nameWidth])
	}
	return name
}

func label(p *edge.Play) string {
	if p == nil {
		return edge.NoBet
	}
	return p.Label
}
