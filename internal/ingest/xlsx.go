package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// ReadXLSX reads the poll table on spec.Sheet of a workbook. Spreadsheet
// cells carry no link titles, so party names come from spec.PartyNames or
// the header text.
func ReadXLSX(r io.Reader, spec TableSpec, opts ...Option) (*types.PollsList, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := spec.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrNoTable)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}

	grid := make([][]cell, len(rows))
	for i, row := range rows {
		grid[i] = make([]cell, len(row))
		for j, v := range row {
			grid[i][j] = cell{Text: strings.TrimSpace(v)}
		}
	}
	return newReader(opts).pollsFromGrid(grid, spec)
}
