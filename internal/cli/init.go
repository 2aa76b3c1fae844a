package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tally configuration and archive",
		Long:  "Create the configuration directory and config.yaml, then initialize the archive.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := a.dataDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(a.configDir, 0o755); err != nil {
				return systemError("create config directory: %w", err)
			}
			created, err := writeConfigIfMissing(a.configDir, dataDir)
			if err != nil {
				return systemError("write config: %w", err)
			}
			if created {
				a.logger.Info("config written", "dir", a.configDir)
			}

			if err := a.withArchive(func(types.Archive) error { return nil }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tally initialized (data: %s)\n", dataDir)
			return nil
		},
	}
}
