package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// DefaultSelector matches the poll tables of wiki-style pages.
const DefaultSelector = "table.wikitable"

// ReadHTML parses an HTML document and reads the table chosen by
// spec.Selector and spec.Table.
func ReadHTML(r io.Reader, spec TableSpec, opts ...Option) (*types.PollsList, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	selector := spec.Selector
	if selector == "" {
		selector = DefaultSelector
	}
	tables := doc.Find(selector)
	if spec.Table < 0 || spec.Table >= tables.Length() {
		return nil, fmt.Errorf("%w: %s #%d (found %d)", ErrNoTable, selector, spec.Table, tables.Length())
	}
	grid := htmlGrid(tables.Eq(spec.Table))
	return newReader(opts).pollsFromGrid(grid, spec)
}

// CountHTMLTables returns how many tables selector matches in the document.
func CountHTMLTables(r io.Reader, selector string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return 0, fmt.Errorf("parsing HTML: %w", err)
	}
	if selector == "" {
		selector = DefaultSelector
	}
	return doc.Find(selector).Length(), nil
}

func htmlGrid(table *goquery.Selection) [][]cell {
	var grid [][]cell
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []cell
		tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
			title, _ := td.Find("a[title]").First().Attr("title")
			row = append(row, cell{
				Text:  strings.TrimSpace(td.Text()),
				Title: title,
			})
		})
		grid = append(grid, row)
	})
	return grid
}
