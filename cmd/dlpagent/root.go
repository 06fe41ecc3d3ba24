package dlpagent

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig        string
	flagVerbose       int
	flagNoColor       bool
	flagLogJSON       bool
	flagNoUpdateCheck bool

	version = "0.1.0"
)

// errFindings makes the process exit 1 instead of 2.
var errFindings = errors.New("sensitive data found")

// rootCmd is the base Cobra command for the agent CLI.
var rootCmd = &cobra.Command{
	Use:   "dlpagent",
	Short: "Find sensitive data on file shares and report it",
	Long: "dlpagent walks a directory tree, extracts text from documents, matches configurable " +
		"patterns and reports censored findings to a central controller.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errFindings) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default: dlpagent.json|yaml in ., ~/.config/dlpagent, /etc/dlpagent)")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "write logs to stderr as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
}
