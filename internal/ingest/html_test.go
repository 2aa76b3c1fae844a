package ingest

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pollPage = `<html><body>
<table class="infobox"><tr><td>not a poll table</td></tr></table>
<table class="wikitable">
<tr><th>Pollster</th><th>Fieldwork date</th><th>Sample</th>
<th><a href="/wiki/PP" title="People's Party (Spain)">PP</a></th>
<th><a href="/wiki/PSOE" title="PSOE">PSOE</a></th>
<th>Podemos</th><th>Error</th></tr>
<tr><td>CIS</td><td>12–15 Jun 2016</td><td>1,000</td><td>29.2</td><td>21.1</td><td>?</td><td>±2.5 %</td></tr>
<tr><td colspan="7">Campaign starts</td></tr>
<tr><td>Nobody</td><td>soon</td><td>1</td><td>1</td><td>1</td><td>1</td><td>1</td></tr>
<tr><td>GAD3</td><td>20 Jun 2016[1]</td><td>900</td><td>30.0%</td><td></td><td>14.1</td><td>—</td></tr>
</table>
</body></html>`

func pageSpec() TableSpec {
	return TableSpec{
		Name:           "2016",
		DateColumn:     1,
		PartyColumns:   [2]int{3, 6},
		PollsterColumn: Col(0),
		ErrorColumn:    Col(-1),
	}
}

func TestReadHTML(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	list, err := ReadHTML(strings.NewReader(pollPage), pageSpec(), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, "2016", list.Name)
	require.Equal(t, 2, list.Len())

	polls := list.Polls()
	cis := polls[0]
	assert.Equal(t, "CIS", cis.Pollster)
	assert.True(t, cis.Date.Equal(time.Date(2016, time.June, 15, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, cis.MarginOfError)
	assert.Equal(t, 2.5, *cis.MarginOfError)
	v, ok := cis.Raw("People's Party (Spain)")
	assert.True(t, ok, "header link title names the column")
	assert.Equal(t, 29.2, v)
	_, ok = cis.Raw("Podemos")
	assert.False(t, ok, "non-numeric cells are skipped")

	gad3 := polls[1]
	assert.Equal(t, "GAD3", gad3.Pollster)
	assert.Nil(t, gad3.MarginOfError)
	v, ok = gad3.Raw("Podemos")
	assert.True(t, ok, "header text names the column when there is no link")
	assert.Equal(t, 14.1, v)
	assert.Len(t, gad3.Entries(), 2)

	assert.Contains(t, logs.String(), "skipping row")
	assert.Contains(t, logs.String(), "soon")
}

func TestReadHTMLExplicitNamesAndWindow(t *testing.T) {
	spec := pageSpec()
	spec.PartyNames = []string{"PP", "PSOE", "Podemos"}
	spec.LastRow = 2

	list, err := ReadHTML(strings.NewReader(pollPage), spec)
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	v, ok := list.Polls()[0].Raw("PP")
	assert.True(t, ok)
	assert.Equal(t, 29.2, v)

	spec.FirstRow = 4
	spec.LastRow = 0
	list, err = ReadHTML(strings.NewReader(pollPage), spec)
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	assert.Equal(t, "GAD3", list.Polls()[0].Pollster)
}

func TestReadHTMLErrors(t *testing.T) {
	spec := pageSpec()
	spec.Table = 1
	_, err := ReadHTML(strings.NewReader(pollPage), spec)
	assert.ErrorIs(t, err, ErrNoTable)

	spec = pageSpec()
	spec.PartyColumns = [2]int{3, 9}
	_, err = ReadHTML(strings.NewReader(pollPage), spec)
	assert.ErrorIs(t, err, ErrNoPartyNames)
}

func TestCountHTMLTables(t *testing.T) {
	n, err := CountHTMLTables(strings.NewReader(pollPage), "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = CountHTMLTables(strings.NewReader(pollPage), "table")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
