package fetcher

import (
	"fmt"
	"scrapesync-backend/lib/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func normalizeHeader(text string) string {
	text = strings.ToLower(htmlutil.Normalize(text))
	return strings.ReplaceAll(text, " ", "_")
}

// parseTable turns a html table into rows keyed by the normalized column
// headers. Headers come from `thead th` when present, otherwise from the
// first row.
func parseTable(table *goquery.Selection) []Row {
	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, normalizeHeader(th.Text()))
	})

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}
	if len(headers) == 0 && rows.Length() > 0 {
		rows.First().Children().Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, normalizeHeader(cell.Text()))
		})
		rows = rows.Slice(1, rows.Length())
	}

	var result []Row
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Children().FilterFunction(func(_ int, cell *goquery.Selection) bool {
			return goquery.NodeName(cell) == "td" || goquery.NodeName(cell) == "th"
		})
		if cells.Length() == 0 {
			return
		}
		row := Row{}
		cells.Each(func(i int, cell *goquery.Selection) {
			key := ""
			if i < len(headers) {
				key = headers[i]
			}
			if key == "" {
				key = fmt.Sprintf("column_%d", i)
			}
			row[key] = htmlutil.SelectionText(cell)
		})
		result = append(result, row)
	})
	return result
}
