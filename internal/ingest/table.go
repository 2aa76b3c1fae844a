// Package ingest reads poll tables from HTML pages and spreadsheets into a
// PollsList. Each table row is one poll; a range of columns holds the vote
// share of each party.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Ingest errors.
var (
	ErrNoTable        = errors.New("no matching table")
	ErrNoPartyNames   = errors.New("party names not given and not found in header")
	ErrInvalidColumns = errors.New("invalid party column range")
)

// minCellsPerRow is the smallest row length treated as a poll. Shorter rows
// are section breaks, notes and merged election-result rows.
const minCellsPerRow = 4

// Column selects a cell within a row. The zero Column selects nothing;
// negative indexes count from the end of the row.
type Column struct {
	Index int
	set   bool
}

// Col returns the Column at index i.
func Col(i int) Column {
	return Column{Index: i, set: true}
}

// IsSet reports whether the column was selected with Col.
func (c Column) IsSet() bool {
	return c.set
}

// TableSpec describes where the poll data sits in a table.
type TableSpec struct {
	// Name of the resulting PollsList.
	Name string

	// DateColumn holds the fieldwork date of each poll.
	DateColumn int

	// PartyColumns is the half-open range [start, end) of vote-share columns.
	PartyColumns [2]int

	// PartyNames labels the party columns. When empty, names are read from
	// the header row: the title of the cell's first link, else its text.
	PartyNames []string

	PollsterColumn Column
	ErrorColumn    Column

	// FirstRow is the first data row; 0 means the row after the header.
	// LastRow is exclusive; values <= 0 count back from the end.
	FirstRow int
	LastRow  int

	// Selector picks candidate tables in HTML; Table indexes into the
	// matches. Sheet names the spreadsheet tab, defaulting to the first.
	Selector string
	Table    int
	Sheet    string

	// Year completes dates written without one, such as "12–15 Jun".
	// Zero means the current year.
	Year int
}

func (s TableSpec) validate() error {
	if s.PartyColumns[0] < 0 || s.PartyColumns[1] <= s.PartyColumns[0] {
		return fmt.Errorf("%w: %v", ErrInvalidColumns, s.PartyColumns)
	}
	if n := len(s.PartyNames); n > 0 && n != s.PartyColumns[1]-s.PartyColumns[0] {
		return fmt.Errorf("%w: %d names for %d columns", ErrInvalidColumns, n, s.PartyColumns[1]-s.PartyColumns[0])
	}
	return nil
}

// cell is the readable content of one table cell.
type cell struct {
	Text  string
	Title string
}

func (c cell) label() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Text
}

// Option configures a read.
type Option func(*reader)

type reader struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(logger *slog.Logger) Option {
	return func(r *reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func newReader(opts []Option) *reader {
	r := &reader{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// pollsFromGrid turns table rows into polls following spec. Row 0 is the
// header.
func (r *reader) pollsFromGrid(grid [][]cell, spec TableSpec) (*types.PollsList, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	names := spec.PartyNames
	if len(names) == 0 {
		var err error
		if names, err = headerNames(grid, spec.PartyColumns); err != nil {
			return nil, err
		}
	}

	first, last := spec.FirstRow, spec.LastRow
	if first <= 0 {
		first = 1
	}
	if last <= 0 {
		last += len(grid)
	}
	last = min(last, len(grid))

	list := types.NewPollsList(spec.Name)
	for i := first; i < last; i++ {
		row := grid[i]
		if len(row) < minCellsPerRow {
			continue
		}
		date, err := ParseDateIn(at(row, spec.DateColumn).Text, spec.Year)
		if err != nil {
			r.logger.Warn("skipping row", "row", i, "error", err)
			continue
		}

		var entries []types.Entry
		for j, name := range names {
			v, ok := ParseShare(at(row, spec.PartyColumns[0]+j).Text)
			if !ok {
				continue
			}
			entries = append(entries, types.Entry{Label: name, Value: v})
		}

		var opts []types.PollOption
		if spec.PollsterColumn.IsSet() {
			if name := at(row, spec.PollsterColumn.Index).Text; name != "" {
				opts = append(opts, types.WithPollster(name))
			}
		}
		if spec.ErrorColumn.IsSet() {
			if moe, ok := ParseMargin(at(row, spec.ErrorColumn.Index).Text); ok {
				opts = append(opts, types.WithMarginOfError(moe))
			}
		}

		poll, err := types.NewPollFromEntries(date, entries, opts...)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		list.Add(poll)
	}
	return list, nil
}

func headerNames(grid [][]cell, cols [2]int) ([]string, error) {
	if len(grid) == 0 || len(grid[0]) < cols[1] {
		return nil, ErrNoPartyNames
	}
	names := make([]string, 0, cols[1]-cols[0])
	for _, c := range grid[0][cols[0]:cols[1]] {
		name := c.label()
		if name == "" {
			return nil, ErrNoPartyNames
		}
		names = append(names, name)
	}
	return names, nil
}

// at returns the cell at index i, counting from the end when negative.
// Missing cells are empty.
func at(row []cell, i int) cell {
	if i < 0 {
		i += len(row)
	}
	if i < 0 || i >= len(row) {
		return cell{}
	}
	return row[i]
}

// stripNotes drops footnote markers such as "[12]" and surrounding space.
func stripNotes(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// ParseShare reads a vote share such as "21.3", "21.3%" or "21.3[a]".
func ParseShare(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(stripNotes(s)), "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseMargin reads a margin of error such as "±2.5 %" or "2.5".
func ParseMargin(s string) (float64, bool) {
	s = strings.TrimPrefix(stripNotes(s), "±")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	return ParseShare(fields[0])
}

var (
	dayRange   = regexp.MustCompile(`^\d{1,2}\s*-\s*(\d{1,2}\s+\pL.*)$`)
	monthRange = regexp.MustCompile(`^\d{1,2}\s+\pL+\s*-\s*(\d{1,2}\s+\pL.*)$`)
	abbrevDot  = regexp.MustCompile(`(\pL)\.`)
	fourDigits = regexp.MustCompile(`\b\d{4}\b`)
)

// fallbackLayouts cover month-year cells and day-first forms that dateparse
// leaves ambiguous.
var fallbackLayouts = []string{
	"January 2006",
	"Jan 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2.1.2006",
	"2/1/2006",
}

// ParseDate reads a fieldwork date, completing a missing year with the
// current one. See ParseDateIn.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, 0)
}

// ParseDateIn reads a fieldwork date. Ranges such as "12–15 Jun 2016",
// "12-15 Jun 2016" or "28 May – 3 Jun 2016" resolve to their last day.
// Numeric dates are read day first. A date without a year takes year, or
// the current year when year is zero.
func ParseDateIn(s string, year int) (time.Time, error) {
	s = lastDay(stripNotes(s))
	s = strings.TrimSpace(abbrevDot.ReplaceAllString(s, "$1"))
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if !fourDigits.MatchString(s) {
		if year <= 0 {
			year = time.Now().Year()
		}
		s = fmt.Sprintf("%s %d", s, year)
	}

	t, err := dateparse.ParseIn(s, time.UTC,
		dateparse.PreferMonthFirst(false),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err == nil {
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, lerr := time.Parse(layout, s); lerr == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, err)
}

// lastDay keeps the end of a date range.
func lastDay(s string) string {
	if i := strings.LastIndex(s, "–"); i >= 0 {
		return strings.TrimSpace(s[i+len("–"):])
	}
	if i := strings.LastIndex(s, " - "); i >= 0 {
		return strings.TrimSpace(s[i+len(" - "):])
	}
	if m := dayRange.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := monthRange.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
