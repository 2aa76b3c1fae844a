package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// matchView is the JSON form of a resolved label.
type matchView struct {
	Label string  `json:"label"`
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Ratio float64 `json:"ratio"`
	Fuzzy bool    `json:"fuzzy"`
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <label>...",
		Short: "Resolve labels to registered parties",
		Long: `Resolve looks each label up as a key first and falls back to name
similarity. A fallback match is reported with its ratio and logged as a
warning; a label that matches nothing fails the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive types.Archive) error {
				set, err := a.partySet(archive)
				if err != nil {
					return err
				}
				var views []matchView
				for _, label := range args {
					m, err := set.GetMatch(label)
					if err != nil {
						return err
					}
					views = append(views, matchView{
						Label: label,
						Key:   m.Key,
						Name:  m.Party.Name,
						Ratio: m.Ratio,
						Fuzzy: m.Fuzzy,
					})
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), views)
				}
				for _, v := range views {
					how := "exact"
					if v.Fuzzy {
						how = fmt.Sprintf("closest match, ratio %.3f", v.Ratio)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s) [%s]\n", v.Label, v.Key, v.Name, how)
				}
				return nil
			})
		},
	}
}

func newExtractCmd(a *app) *cobra.Command {
	var into string
	cmd := &cobra.Command{
		Use:   "extract <label>...",
		Short: "Select the parties matching every label",
		Long: `Extract resolves every label by name similarity and prints the
resulting subset. If any label does not resolve, nothing is printed.
With --into the subset is saved under another context, together with
the members of its coalitions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive types.Archive) error {
				set, err := a.partySet(archive)
				if err != nil {
					return err
				}
				subset, err := set.Extract(args...)
				if err != nil {
					return err
				}
				if into != "" {
					for _, p := range withMembers(subset) {
						if err := archive.SaveParty(into, p); err != nil {
							return systemError("save party: %w", err)
						}
					}
				}
				if a.flags.jsonMode {
					views := []partyView{}
					for _, p := range subset.All() {
						views = append(views, viewParty(p))
					}
					return printJSON(cmd.OutOrStdout(), views)
				}
				for key, p := range subset.All() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", key, p.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&into, "into", "", "save the subset under this context")
	return cmd
}

// withMembers lists the parties of set and, recursively, their coalition
// members. Members come before the coalitions holding them and each key
// appears once.
func withMembers(set *types.PartySet) []*types.Party {
	seen := map[string]bool{}
	var out []*types.Party
	var visit func(p *types.Party)
	visit = func(p *types.Party) {
		if seen[p.Key()] {
			return
		}
		seen[p.Key()] = true
		for _, m := range p.Members() {
			visit(m)
		}
		out = append(out, p)
	}
	for _, p := range set.All() {
		visit(p)
	}
	return out
}
