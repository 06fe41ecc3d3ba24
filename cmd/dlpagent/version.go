package dlpagent

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/update"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dlpagent %s\n", version)
			if flagNoUpdateCheck {
				return
			}
			if latest, newer, _ := update.Check(version, false); newer {
				fmt.Fprintf(cmd.OutOrStdout(), "new version available: v%s (run 'dlpagent update')\n", latest)
			}
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Replace this binary with the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := selfUpdate()
			if err != nil {
				return fmt.Errorf("self-update: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dlpagent is now at v%s\n", v)
			return nil
		},
	})
}
