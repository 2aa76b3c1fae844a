package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheet string, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestReadXLSX(t *testing.T) {
	r := workbook(t, "Polls", [][]any{
		{"Pollster", "Date", "Sample", "PP", "PSOE", "Cs", "Error"},
		{"CIS", "2016-06-15", "2000", "29.2", "21.1", "14.0", "±2.5 %"},
		{"Note"},
		{"GAD3", "20 Jun 2016", "900", "30.0", "n/a", "13.5", ""},
	})

	list, err := ReadXLSX(r, TableSpec{
		Name:           "xlsx",
		DateColumn:     1,
		PartyColumns:   [2]int{3, 6},
		PollsterColumn: Col(0),
		ErrorColumn:    Col(6),
	})
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())

	cis := list.Polls()[0]
	assert.Equal(t, "CIS", cis.Pollster)
	require.NotNil(t, cis.MarginOfError)
	assert.Equal(t, 2.5, *cis.MarginOfError)
	v, ok := cis.Raw("Cs")
	assert.True(t, ok)
	assert.Equal(t, 14.0, v)

	gad3 := list.Polls()[1]
	_, ok = gad3.Raw("PSOE")
	assert.False(t, ok)
	assert.Nil(t, gad3.MarginOfError)
}

func TestReadXLSXMissingSheet(t *testing.T) {
	r := workbook(t, "Sheet1", [][]any{{"a"}})
	_, err := ReadXLSX(r, TableSpec{PartyColumns: [2]int{1, 2}, Sheet: "Nope"})
	assert.Error(t, err)
}
