package dlpagent

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/extract"
	"github.com/redactyl/dlpagent/internal/report"
	"github.com/redactyl/dlpagent/internal/rules"
	"github.com/redactyl/dlpagent/internal/types"
)

var flagExplain bool

func init() {
	cmd := &cobra.Command{
		Use:   "test-rules <file|->",
		Short: "Run the configured rules over one file or stdin",
		Long: "test-rules applies custom_searches from the config file to a single document, or to " +
			"stdin when the argument is '-', and prints the censored matches. Only the rules need " +
			"to be configured.",
		Args: cobra.ExactArgs(1),
		RunE: runTestRules,
	}
	cmd.Flags().BoolVar(&flagExplain, "explain", false, "print hit counts per prefix/suffix combination")
	rootCmd.AddCommand(cmd)
}

func runTestRules(cmd *cobra.Command, args []string) error {
	fc, path, err := loadFileConfig()
	if err != nil {
		return err
	}
	if len(fc.CustomSearches) == 0 {
		return fmt.Errorf("config %s: no custom_searches defined", path)
	}
	if err := rules.Validate(fc.CustomSearches); err != nil {
		return err
	}

	name := args[0]
	var text string
	if name == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		name, text = "stdin", string(b)
	} else {
		out := extract.New().Extract(cmd.Context(), name)
		if out.Failed() {
			return errors.New(out.Text)
		}
		text = out.Text
	}

	w := cmd.OutOrStdout()
	if flagExplain {
		for _, r := range fc.CustomSearches {
			ms, err := rules.Compile(r)
			if err != nil {
				return err
			}
			for _, m := range ms {
				fmt.Fprintf(w, "%s prefix=%q suffix=%q hits=%d\n", r.Name, m.Prefix, m.Suffix, m.Count(text))
			}
		}
		fmt.Fprintln(w)
	}

	matches, err := rules.Search(fc.CustomSearches, text)
	if err != nil {
		return err
	}
	findings := make([]types.Finding, 0, len(matches))
	for _, m := range matches {
		findings = append(findings, types.Finding{
			Path:        name,
			Rule:        m.Rule,
			Value:       m.Value,
			Fingerprint: rules.Fingerprint(name, m.Rule, m.Value),
		})
	}
	return report.PrintTable(w, findings, report.PrintOptions{NoColor: flagNoColor})
}
