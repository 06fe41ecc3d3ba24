package dlpagent

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/audit"
	"github.com/redactyl/dlpagent/internal/report"
)

func init() {
	var (
		logPath string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan cycles from the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := logPath
			if p == "" {
				fc, path, err := loadFileConfig()
				if err != nil {
					return err
				}
				if fc.AuditLog == nil || *fc.AuditLog == "" {
					return fmt.Errorf("config %s: audit_log is not set", path)
				}
				p = *fc.AuditLog
			}
			records, err := audit.New(p).LoadHistory()
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			return report.PrintHistory(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().StringVar(&logPath, "audit-log", "", "audit log to read (default: audit_log from the config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many cycles (0 = all)")
	rootCmd.AddCommand(cmd)
}
