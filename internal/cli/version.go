package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/tally"
)

const modulePath = "github.com/mesh-intelligence/tally"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tally version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tally v%s\nmodule: %s\n", tally.Version, modulePath)
			return nil
		},
	}
}
