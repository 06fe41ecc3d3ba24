package dlpagent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/extract"
)

var (
	flagExtractTimeout time.Duration
	flagExtractTypes   bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the text the agent would search in a file",
		Args: func(cmd *cobra.Command, args []string) error {
			if flagExtractTypes {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d := extract.New()
			if flagExtractTypes {
				for _, t := range d.Supported() {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			}
			ctx := cmd.Context()
			if flagExtractTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, flagExtractTimeout)
				defer cancel()
			}
			out := d.Extract(ctx, args[0])
			if out.Failed() {
				return errors.New(out.Text)
			}
			if flagVerbose > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "media type: %s\n", out.Type)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Text)
			return nil
		},
	}
	cmd.Flags().DurationVar(&flagExtractTimeout, "timeout", 60*time.Second, "give up on extraction after this long")
	cmd.Flags().BoolVar(&flagExtractTypes, "types", false, "list the media types that have an extractor and exit")
	rootCmd.AddCommand(cmd)
}
