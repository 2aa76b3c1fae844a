package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShare(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"21.3", 21.3, true},
		{" 21.3% ", 21.3, true},
		{"21.3[a]", 21.3, true},
		{"0", 0, true},
		{"", 0, false},
		{"?", 0, false},
		{"21.3 / 4.1", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseShare(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMargin(t *testing.T) {
	got, ok := ParseMargin("±2.5 %")
	assert.True(t, ok)
	assert.Equal(t, 2.5, got)

	got, ok = ParseMargin("3.1")
	assert.True(t, ok)
	assert.Equal(t, 3.1, got)

	_, ok = ParseMargin("—")
	assert.False(t, ok)
	_, ok = ParseMargin("")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2016, time.June, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2016-06-15",
		"15 Jun 2016",
		"15 June 2016",
		"Jun 15, 2016",
		"15/6/2016",
		"12–15 Jun 2016",
		"28 May–15 Jun 2016",
		"1 Jun 2016 - 15 Jun 2016",
		"15 Jun 2016[3]",
		"12-15 Jun 2016",
		"12 - 15 Jun 2016",
		"28 May-15 Jun 2016",
		"15 Jun. 2016",
		"15.06.2016",
		"15/06/2016",
		"Jun 15 2016",
		"2016-06-15T00:00:00Z",
	} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %v", in, got)
	}

	_, err := ParseDate("soon")
	assert.Error(t, err)
	_, err = ParseDate("[1]")
	assert.Error(t, err)
}

func TestParseDateMonthOnly(t *testing.T) {
	got, err := ParseDate("June 2016")
	require.NoError(t, err)
	assert.Equal(t, 2016, got.Year())
	assert.Equal(t, time.June, got.Month())
}

func TestParseDateInMissingYear(t *testing.T) {
	got, err := ParseDateIn("12–15 Jun", 2016)
	require.NoError(t, err)
	assert.True(t, time.Date(2016, time.June, 15, 0, 0, 0, 0, time.UTC).Equal(got), "parsed as %v", got)

	got, err = ParseDate("12–15 Jun")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Year(), got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 15, got.Day())
}

func TestTableSpecValidate(t *testing.T) {
	assert.ErrorIs(t, TableSpec{PartyColumns: [2]int{3, 3}}.validate(), ErrInvalidColumns)
	assert.ErrorIs(t, TableSpec{PartyColumns: [2]int{-1, 3}}.validate(), ErrInvalidColumns)
	assert.ErrorIs(t, TableSpec{PartyColumns: [2]int{1, 3}, PartyNames: []string{"PP"}}.validate(), ErrInvalidColumns)
	assert.NoError(t, TableSpec{PartyColumns: [2]int{1, 3}, PartyNames: []string{"PP", "PSOE"}}.validate())
}

func TestColumn(t *testing.T) {
	var none Column
	assert.False(t, none.IsSet())
	assert.True(t, Col(0).IsSet())

	row := []cell{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	assert.Equal(t, "c", at(row, -1).Text)
	assert.Equal(t, "a", at(row, 0).Text)
	assert.Equal(t, "", at(row, 5).Text)
	assert.Equal(t, "", at(row, -4).Text)
}
