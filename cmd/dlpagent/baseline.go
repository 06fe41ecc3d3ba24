package dlpagent

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/engine"
	"github.com/redactyl/dlpagent/internal/extract"
	"github.com/redactyl/dlpagent/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	var path string
	update := &cobra.Command{
		Use:   "update",
		Short: "Accept every current finding into the baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			logger, closer, err := newLogger(cmd, cfg.LogFile)
			if err != nil {
				return err
			}
			defer closer.Close()

			res, err := engine.ScanTree(cmd.Context(), engine.FromConfig(cfg, logger), extract.New())
			if err != nil {
				return err
			}
			if err := report.SaveBaseline(path, res.Findings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d finding(s) in %s\n", len(res.Findings), path)
			return nil
		},
	}
	update.Flags().StringVar(&path, "baseline", defaultBaseline, "baseline file to write")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
