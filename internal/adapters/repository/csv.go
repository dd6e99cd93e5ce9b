package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/courtline/internal/domain/model"
)

// CSVHeader is the column order of the exported prediction table.
var CSVHeader = []string{
	"Away", "Home", "Book Spread (Home)", "Book Total",
	"Model Away Pts", "Model Home Pts", "Model Total", "Model Spread (Home)",
	"Total Edge", "Spread Edge", "Totals Play", "Spread Play",
	"Home Win %", "Away Win %", "Confidence (1-10)",
}

// WriteCSV writes rows as a table. Missing values are empty cells.
func WriteCSV(w io.Writer, rows []model.Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range rows {
		p := &rows[i]
		rec := []string{
			p.Away, p.Home, opt(p.BookSpread), opt(p.BookTotal),
			num(p.AwayPoints), num(p.HomePoints), num(p.ModelTotal), num(p.ModelSpread),
			opt(p.TotalEdge), opt(p.SpreadEdge), p.TotalPlay, p.SpreadPlay,
			opt(p.HomeWinPct), opt(p.AwayWinPct), optInt(p.Confidence),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func opt(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
