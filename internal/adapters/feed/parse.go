// Package feed retrieves rating feeds and turns them into row tables.
package feed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Supported body formats.
const (
	FormatCSV  = "csv"
	FormatHTML = "html"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse dispatches on format.
func Parse(format string, body []byte) ([][]string, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return ParseCSV(body)
	case FormatHTML:
		return ParseHTMLTable(body)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrFeedParse, format)
	}
}

// ParseCSV reads comma-separated rows. Quoted cells may contain commas and
// line breaks, rows may differ in width and blank rows are dropped.
func ParseCSV(body []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, utf8BOM)))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedParse, err)
	}
	rows := records[:0]
	for _, rec := range records {
		if !blank(rec) {
			rows = append(rows, rec)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrFeedParse)
	}
	return rows, nil
}

// ParseHTMLTable reads the first table of an HTML page. Header and data cells
// are both kept so header detection works the same as for CSV.
func ParseHTMLTable(body []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedParse, err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table", ErrFeedParse)
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, c *goquery.Selection) {
			row = append(row, strings.TrimSpace(c.Text()))
		})
		if !blank(row) {
			rows = append(rows, row)
		}
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrFeedParse)
	}
	return rows, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
