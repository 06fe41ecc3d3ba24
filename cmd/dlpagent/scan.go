package dlpagent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/engine"
	"github.com/redactyl/dlpagent/internal/extract"
	"github.com/redactyl/dlpagent/internal/report"
	"github.com/redactyl/dlpagent/internal/types"
	"github.com/redactyl/dlpagent/internal/update"
)

const defaultBaseline = "dlpagent.baseline.json"

var (
	flagPath           string
	flagFormat         string
	flagBaseline       string
	flagFailOnFindings bool
	flagDryRun         bool
	flagProgress       bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the configured path once and print findings locally",
		Long: "scan runs a single walk with the configured rules without contacting the controller. " +
			"Findings listed in the baseline file are hidden.",
		Args: cobra.NoArgs,
		RunE: runScan,
	}
	cmd.Flags().StringVarP(&flagPath, "path", "p", "", "override scan_path from the config")
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "table", "output format: table|text|json|sarif")
	cmd.Flags().StringVar(&flagBaseline, "baseline", defaultBaseline, "baseline file of accepted findings")
	cmd.Flags().BoolVar(&flagFailOnFindings, "fail-on-findings", false, "exit 1 when new findings remain")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "count files that would be scanned without opening them")
	cmd.Flags().BoolVar(&flagProgress, "progress", false, "print progress to stderr")
	rootCmd.AddCommand(cmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(flagFormat)
	switch format {
	case "table", "text", "json", "sarif":
	default:
		return fmt.Errorf("unknown format %q", flagFormat)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if flagPath != "" {
		abs, err := filepath.Abs(flagPath)
		if err != nil {
			return err
		}
		cfg.ScanPath = abs
	}
	logger, closer, err := newLogger(cmd, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()
	ec := engine.FromConfig(cfg, logger)
	out := cmd.OutOrStdout()
	human := format == "table" || format == "text"

	if flagDryRun {
		n, err := engine.CountTargets(ctx, ec)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d file(s) would be scanned under %s\n", n, cfg.ScanPath)
		return nil
	}

	if human && !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "(new version available: v%s)  run 'dlpagent update' to upgrade\n", latest)
		}
	}

	if flagProgress {
		total, _ := engine.CountTargets(ctx, ec)
		progressed := 0
		ec.Progress = func(string) {
			progressed++
			if total > 0 && (progressed%10 == 0 || progressed == total) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\r[%d/%d] %.0f%%", progressed, total, float64(progressed)/float64(total)*100)
			}
		}
		defer fmt.Fprintln(cmd.ErrOrStderr())
	}

	res, err := engine.ScanTree(ctx, ec, extract.New())
	if err != nil {
		return fmt.Errorf("scan error: %w", err)
	}

	base, _ := report.LoadBaseline(flagBaseline)
	fresh := report.FilterNewFindings(res.Findings, base)
	if fresh == nil {
		fresh = []types.Finding{}
	}

	opts := report.PrintOptions{
		NoColor:      flagNoColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		FileErrors:   len(res.FileErrors),
	}
	switch format {
	case "json":
		host, _ := os.Hostname()
		err = report.WriteJSON(out, types.Report{
			Tool:     "dlpagent",
			Version:  version,
			Schema:   types.SchemaVersion,
			CycleID:  uuid.NewString(),
			Host:     host,
			Root:     cfg.ScanPath,
			Findings: fresh,
		})
	case "sarif":
		err = report.WriteSARIFWithStats(out, fresh, version, map[string]int{
			"filesScanned": res.FilesScanned,
			"fileErrors":   len(res.FileErrors),
		})
	case "text":
		report.PrintText(out, fresh, opts)
	default:
		err = report.PrintTable(out, fresh, opts)
	}
	if err != nil {
		return err
	}

	if flagFailOnFindings && len(fresh) > 0 {
		return errFindings
	}
	return nil
}
