package rating

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.+-]`)               //nolint:gochecknoglobals // compiled once
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`) //nolint:gochecknoglobals // compiled once
	whitespace    = regexp.MustCompile(`\s+`)                     //nolint:gochecknoglobals // compiled once
)

// NoColumn marks an absent prior-season column.
const NoColumn = -1

// ValueColumn maps one stat to its current and prior season columns.
type ValueColumn struct {
	Stat    Stat
	Current int
	Prior   int
	// Percent applies the whole-number-or-fraction rule.
	Percent bool
}

// Layout locates the team name and values in a feed's rows.
type Layout struct {
	TeamColumn int
	StartRow   int
	Values     []ValueColumn
}

// Blend weights the current and prior season values.
type Blend struct {
	Current float64
	Prior   float64
}

// Fragment is what one source knows about one team.
type Fragment struct {
	Name   string
	Values map[Stat]float64
}

// Coerce strips everything but digits, sign and dot and parses the leading
// number. ok is false when the cell holds no finite number.
func Coerce(cell string) (float64, bool) {
	s := leadingNumber.FindString(nonNumeric.ReplaceAllString(cell, ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizePercent maps whole-number percentages to fractions.
func NormalizePercent(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}

// Extract reads one fragment per row with a non-empty team cell. keyer maps
// names to keys; nil means Key. Later rows overwrite earlier rows with the same key.
func Extract(rows [][]string, layout Layout, blend Blend, keyer func(string) string) map[string]Fragment {
	if keyer == nil {
		keyer = Key
	}
	out := make(map[string]Fragment)
	for r := max(layout.StartRow, 0); r < len(rows); r++ {
		row := rows[r]
		name := strings.TrimSpace(cell(row, layout.TeamColumn))
		if name == "" {
			continue
		}
		key := keyer(name)
		if key == "" {
			continue
		}
		frag := Fragment{Name: name, Values: make(map[Stat]float64, len(layout.Values))}
		for _, vc := range layout.Values {
			if v, ok := blendCells(row, vc, blend); ok {
				frag.Values[vc.Stat] = v
			}
		}
		out[key] = frag
	}
	return out
}

func blendCells(row []string, vc ValueColumn, blend Blend) (float64, bool) {
	cur, okCur := value(row, vc.Current, vc.Percent)
	var (
		pv      float64
		okPrior bool
	)
	if vc.Prior != NoColumn {
		pv, okPrior = value(row, vc.Prior, vc.Percent)
	}
	switch {
	case okCur && okPrior:
		return blend.Current*cur + blend.Prior*pv, true
	case okCur:
		return cur, true
	case okPrior:
		return pv, true
	default:
		return 0, false
	}
}

func value(row []string, col int, percent bool) (float64, bool) {
	v, ok := Coerce(cell(row, col))
	if !ok {
		return 0, false
	}
	if percent {
		v = NormalizePercent(v)
	}
	return v, true
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// HeaderValue names the columns of one stat in a header-addressed feed.
type HeaderValue struct {
	Stat        Stat
	Header      string
	PriorHeader string
	Percent     bool
}

// HeaderSpec describes a feed whose columns are found by header name.
type HeaderSpec struct {
	Team   string
	Values []HeaderValue
	// Aliases rename headers when the canonical name is absent, e.g. ORtg -> AdjO.
	Aliases map[string]string
	// ScanRows is how many leading rows may hold the header.
	ScanRows int
}

// HeaderLayout finds the first row within spec.ScanRows that carries the team
// header and every value header, and returns the layout that reads below it.
func HeaderLayout(rows [][]string, spec HeaderSpec) (Layout, error) {
	scan := max(spec.ScanRows, 1)
	for r := 0; r < scan && r < len(rows); r++ {
		index := headerIndex(rows[r], spec.Aliases)
		team, ok := index[normalizeHeader(spec.Team)]
		if !ok {
			continue
		}
		layout := Layout{TeamColumn: team, StartRow: r + 1}
		complete := true
		for _, hv := range spec.Values {
			col, found := index[normalizeHeader(hv.Header)]
			if !found {
				complete = false
				break
			}
			prior := NoColumn
			if hv.PriorHeader != "" {
				if pc, has := index[normalizeHeader(hv.PriorHeader)]; has {
					prior = pc
				}
			}
			layout.Values = append(layout.Values, ValueColumn{Stat: hv.Stat, Current: col, Prior: prior, Percent: hv.Percent})
		}
		if complete {
			return layout, nil
		}
	}
	var first []string
	if len(rows) > 0 {
		first = rows[0]
	}
	return Layout{}, fmt.Errorf("%w: found %q", ErrHeaderNotFound, first)
}

func headerIndex(row []string, aliases map[string]string) map[string]int {
	index := make(map[string]int, len(row))
	for i, c := range row {
		h := normalizeHeader(c)
		if _, dup := index[h]; !dup && h != "" {
			index[h] = i
		}
	}
	for from, to := range aliases {
		f, t := normalizeHeader(from), normalizeHeader(to)
		if col, ok := index[f]; ok {
			if _, exists := index[t]; !exists {
				index[t] = col
			}
		}
	}
	return index
}

func normalizeHeader(h string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(h), "")
}
