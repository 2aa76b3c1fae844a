package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/ingest"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// pollView is the JSON form of a poll.
type pollView struct {
	ID            string        `json:"id"`
	Date          string        `json:"date"`
	Pollster      string        `json:"pollster,omitempty"`
	MarginOfError *float64      `json:"margin_of_error,omitempty"`
	Entries       []types.Entry `json:"entries"`
}

func viewPoll(p *types.Poll) pollView {
	return pollView{
		ID:            p.ID,
		Date:          p.Date.Format(time.DateOnly),
		Pollster:      p.Pollster,
		MarginOfError: p.MarginOfError,
		Entries:       p.Entries(),
	}
}

func newPollCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Import and list polls",
	}
	cmd.AddCommand(newPollImportCmd(a))
	cmd.AddCommand(newPollListCmd(a))
	return cmd
}

// importFlags collects the table layout given on the command line.
type importFlags struct {
	series      string
	format      string
	dateCol     int
	partyCols   string
	names       []string
	pollsterCol int
	errorCol    int
	hasPollster bool
	hasError    bool
	firstRow    int
	lastRow     int
	selector    string
	table       int
	sheet       string
	year        int
}

// parseColumnRange reads "start:end" as a half-open column range.
func parseColumnRange(s string) ([2]int, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return [2]int{}, fmt.Errorf("invalid column range %q (expected start:end)", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return [2]int{}, fmt.Errorf("invalid column range %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return [2]int{}, fmt.Errorf("invalid column range %q: %w", s, err)
	}
	return [2]int{start, end}, nil
}

func (f importFlags) spec() (ingest.TableSpec, error) {
	cols, err := parseColumnRange(f.partyCols)
	if err != nil {
		return ingest.TableSpec{}, err
	}
	spec := ingest.TableSpec{
		Name:         f.series,
		DateColumn:   f.dateCol,
		PartyColumns: cols,
		PartyNames:   f.names,
		FirstRow:     f.firstRow,
		LastRow:      f.lastRow,
		Selector:     f.selector,
		Table:        f.table,
		Sheet:        f.sheet,
		Year:         f.year,
	}
	if f.hasPollster {
		spec.PollsterColumn = ingest.Col(f.pollsterCol)
	}
	if f.hasError {
		spec.ErrorColumn = ingest.Col(f.errorCol)
	}
	return spec, nil
}

// detectFormat picks the reader from the flag or the file extension.
func detectFormat(flag, path string) (string, error) {
	format := strings.ToLower(flag)
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			format = "html"
		case ".xlsx":
			format = "xlsx"
		}
	}
	switch format {
	case "html", "xlsx":
		return format, nil
	}
	return "", fmt.Errorf("unknown table format for %s (use --format html|xlsx)", path)
}

func newPollImportCmd(a *app) *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a poll table from an HTML page or a spreadsheet",
		Long: `Import reads one table and stores one poll per row in a series.

Columns are zero-based. Party names come from --name or, when omitted,
from the header row (the title of a cell's link, else its text). Negative
pollster and error columns count from the end of the row.

Example:
  tally poll import polls.html --series 2016 --date-col 1 --party-cols 3:8 \
      --pollster-col 0 --error-col -3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format, err := detectFormat(f.format, path)
			if err != nil {
				return err
			}
			f.hasPollster = cmd.Flags().Changed("pollster-col")
			f.hasError = cmd.Flags().Changed("error-col")
			spec, err := f.spec()
			if err != nil {
				return err
			}

			file, err := os.Open(path)
			if err != nil {
				return systemError("open %s: %w", path, err)
			}
			defer file.Close()

			var list *types.PollsList
			switch format {
			case "html":
				list, err = ingest.ReadHTML(file, spec, ingest.WithLogger(a.logger))
			case "xlsx":
				list, err = ingest.ReadXLSX(file, spec, ingest.WithLogger(a.logger))
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			a.metrics.AddIngested(format, list.Len())

			return a.withArchive(func(archive types.Archive) error {
				if err := archive.SavePolls(f.series, list); err != nil {
					return systemError("save polls: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d polls into %q\n", list.Len(), f.series)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.series, "series", "", "series to store the polls in")
	fl.StringVar(&f.format, "format", "", "html or xlsx (default: from the file extension)")
	fl.IntVar(&f.dateCol, "date-col", 0, "column of the fieldwork date")
	fl.StringVar(&f.partyCols, "party-cols", "", "party columns as start:end, end exclusive")
	fl.StringArrayVar(&f.names, "name", nil, "party label for each party column, in order (repeatable)")
	fl.IntVar(&f.pollsterCol, "pollster-col", 0, "column of the pollster name")
	fl.IntVar(&f.errorCol, "error-col", 0, "column of the margin of error")
	fl.IntVar(&f.firstRow, "first-row", 0, "first data row (default: the row after the header)")
	fl.IntVar(&f.lastRow, "last-row", 0, "end row, exclusive; zero or negative counts from the end")
	fl.StringVar(&f.selector, "selector", "", "CSS selector for HTML tables (default "+ingest.DefaultSelector+")")
	fl.IntVar(&f.table, "table", 0, "index of the table among the selector matches")
	fl.StringVar(&f.sheet, "sheet", "", "spreadsheet tab (default: the first)")
	fl.IntVar(&f.year, "year", 0, "year for dates written without one (default: the current year)")
	_ = cmd.MarkFlagRequired("series")
	_ = cmd.MarkFlagRequired("party-cols")
	return cmd
}

func newPollListCmd(a *app) *cobra.Command {
	var series string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored polls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive types.Archive) error {
				list, err := archive.PollsList(series)
				if err != nil {
					return systemError("load polls: %w", err)
				}
				if a.flags.jsonMode {
					views := []pollView{}
					for _, p := range list.Polls() {
						views = append(views, viewPoll(p))
					}
					return printJSON(cmd.OutOrStdout(), views)
				}
				for i, p := range list.Polls() {
					if i > 0 {
						fmt.Fprintln(cmd.OutOrStdout())
					}
					fmt.Fprint(cmd.OutOrStdout(), p.String())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "series to list (default: all)")
	return cmd
}
