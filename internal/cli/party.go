package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// partyView is the JSON form of a party.
type partyView struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	FullName  string   `json:"full_name"`
	ShortName string   `json:"short_name"`
	Aliases   []string `json:"aliases,omitempty"`
	Kind      string   `json:"kind"`
	Members   []string `json:"members,omitempty"`
}

func viewParty(p *types.Party) partyView {
	v := partyView{
		Key:       p.Key(),
		Name:      p.Name,
		FullName:  p.FullName,
		ShortName: p.ShortName,
		Aliases:   p.Aliases,
		Kind:      p.Kind().String(),
	}
	for _, m := range p.Members() {
		v.Members = append(v.Members, m.Key())
	}
	return v
}

func newPartyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "party",
		Short: "Manage the party registry of a context",
	}
	cmd.AddCommand(newPartyAddCmd(a))
	cmd.AddCommand(newPartyListCmd(a))
	cmd.AddCommand(newPartyShowCmd(a))
	cmd.AddCommand(newPartyJoinCmd(a))
	return cmd
}

func newPartyAddCmd(a *app) *cobra.Command {
	var (
		short, full string
		aliases     []string
		members     []string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a party or coalition",
		Long: `Register a party under the current context. A party already stored
under the same short name is replaced.

Members are looked up among the parties already registered; giving any
turns the party into a coalition.

Example:
  tally party add "Partido Popular" --short PP --alias "People's Party"
  tally party add "Unidos Podemos" --short UP --member Podemos --member IU`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := types.NewParty(args[0],
				types.WithShortName(short),
				types.WithFullName(full),
				types.WithAliases(aliases...),
			)
			if err != nil {
				return err
			}
			return a.withArchive(func(archive types.Archive) error {
				if len(members) > 0 {
					set, err := a.partySet(archive)
					if err != nil {
						return err
					}
					for _, key := range members {
						m, err := set.Get(key)
						if err != nil {
							return err
						}
						p.AddToCoalition(m)
					}
				}
				if err := archive.SaveParty(a.context(), p); err != nil {
					return systemError("save party: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", p.Name, p.Key())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&short, "short", "", "short name, at most 7 characters (derived when empty)")
	cmd.Flags().StringVar(&full, "full", "", "official name (defaults to the name)")
	cmd.Flags().StringArrayVar(&aliases, "alias", nil, "extra name used for matching (repeatable)")
	cmd.Flags().StringArrayVar(&members, "member", nil, "coalition member key or name (repeatable)")
	return cmd
}

func newPartyListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the parties of the current context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive types.Archive) error {
				set, err := a.partySet(archive)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					views := []partyView{}
					for _, p := range set.All() {
						views = append(views, viewParty(p))
					}
					return printJSON(cmd.OutOrStdout(), views)
				}
				for key, p := range set.All() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", key, p.Name)
				}
				return nil
			})
		},
	}
}

func newPartyShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key-or-name>",
		Short: "Describe a party, matching the name if the key is unknown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive types.Archive) error {
				set, err := a.partySet(archive)
				if err != nil {
					return err
				}
				p, err := set.Get(args[0])
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), viewParty(p))
				}
				fmt.Fprint(cmd.OutOrStdout(), p.String())
				return nil
			})
		},
	}
}

func newPartyJoinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "join <coalition> <member>...",
		Short: "Add registered parties to a coalition",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withArchive(func(archive types.Archive) error {
				set, err := a.partySet(archive)
				if err != nil {
					return err
				}
				coalition, err := set.Get(args[0])
				if err != nil {
					return err
				}
				for _, label := range args[1:] {
					m, err := set.Get(label)
					if err != nil {
						return err
					}
					coalition.AddToCoalition(m)
				}
				if err := archive.SaveParty(a.context(), coalition); err != nil {
					return systemError("save party: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d members\n", coalition.Key(), len(coalition.Members()))
				return nil
			})
		},
	}
}
