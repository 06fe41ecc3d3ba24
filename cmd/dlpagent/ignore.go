package dlpagent

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/ignore"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage the ignore file under the scan path",
	}
	add := &cobra.Command{
		Use:   "add <pattern>...",
		Short: "Append patterns to " + ignore.FileName + " in scan_path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, path, err := loadFileConfig()
			if err != nil {
				return err
			}
			if fc.ScanPath == nil || *fc.ScanPath == "" {
				return fmt.Errorf("config %s: scan_path is not set", path)
			}
			for _, p := range args {
				if err := ignore.Append(*fc.ScanPath, p); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", ignore.FileName)
			return nil
		},
	}
	cmd.AddCommand(add)
	rootCmd.AddCommand(cmd)
}
