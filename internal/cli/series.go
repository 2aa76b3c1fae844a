package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// seriesView is the JSON form of one party's series.
type seriesView struct {
	Key    string        `json:"key"`
	Name   string        `json:"name"`
	Points []types.Point `json:"points"`
}

func newSeriesCmd(a *app) *cobra.Command {
	var series string
	cmd := &cobra.Command{
		Use:   "series <party>...",
		Short: "Print the vote share of parties across stored polls",
		Long: `Series resolves each party against the registry and reads its value
from every poll of the series, in date order. Polls where a party has no
value are left out of its series.

Coalitions missing from a poll are summed from their members unless
--join-coalitions=false; --return-partial accepts sums with missing members.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.valueOptions()
			if err != nil {
				return err
			}
			return a.withArchive(func(archive types.Archive) error {
				set, err := a.partySet(archive)
				if err != nil {
					return err
				}
				parties := make([]*types.Party, 0, len(args))
				for _, label := range args {
					p, err := set.Get(label)
					if err != nil {
						return err
					}
					parties = append(parties, p)
				}

				list, err := archive.PollsList(series)
				if err != nil {
					return systemError("load polls: %w", err)
				}
				list.SortByDate()

				start := time.Now()
				all, err := list.SeriesMany(cmd.Context(), parties, opts)
				if err != nil {
					return err
				}
				a.metrics.ObserveSeriesLatency(time.Since(start))

				if a.flags.jsonMode {
					views := make([]seriesView, len(all))
					for i, s := range all {
						views[i] = seriesView{Key: s.Party.Key(), Name: s.Party.Name, Points: s.Points}
						if views[i].Points == nil {
							views[i].Points = []types.Point{}
						}
					}
					return printJSON(cmd.OutOrStdout(), views)
				}
				for _, s := range all {
					for _, pt := range s.Points {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.2f\n", s.Party.Key(), pt.Date.Format(time.DateOnly), pt.Value)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "series to read (default: all)")
	return cmd
}
