// Package report renders findings from one-shot scans and keeps baselines
// of accepted findings.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/redactyl/dlpagent/internal/audit"
	"github.com/redactyl/dlpagent/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FileErrors   int
}

const noFindings = "No sensitive data found ✅"

// SortFindings orders findings by path, then rule, then value.
func SortFindings(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Value < b.Value
	})
}

// PrintText writes one line per finding.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	SortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, noFindings)
	} else {
		width := 4
		for _, f := range findings {
			if l := len(f.Rule); l > width {
				width = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range findings {
			rule := fmt.Sprintf("%-*s", width, f.Rule)
			if !opts.NoColor {
				rule = colorRule(rule)
			}
			fmt.Fprintf(w, "%s %s  %s\n", rule, f.Path, f.Value)
		}
	}
	printFooter(w, findings, opts)
}

// PrintTable writes findings as a bordered table.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	SortFindings(findings)
	if len(findings) == 0 {
		fmt.Fprintln(w, noFindings)
		printFooter(w, findings, opts)
		return nil
	}
	t := tablewriter.NewWriter(w)
	t.Header("Rule", "Path", "Value", "Fingerprint")
	for _, f := range findings {
		if err := t.Append([]string{f.Rule, f.Path, f.Value, f.Fingerprint}); err != nil {
			return err
		}
	}
	if err := t.Render(); err != nil {
		return err
	}
	printFooter(w, findings, opts)
	return nil
}

// PrintHistory writes audit records as a table, newest first.
func PrintHistory(w io.Writer, records []audit.CycleRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No cycles recorded")
		return nil
	}
	t := tablewriter.NewWriter(w)
	t.Header("Time", "Cycle", "Files", "Errors", "Findings", "Top rules", "Status")
	for _, r := range records {
		status := "ok"
		switch {
		case r.Error != "":
			status = "failed: " + r.Error
		case r.Reported:
			status = "reported"
		}
		top := audit.TopRules(r.RuleCounts)
		if len(top) > 3 {
			top = top[:3]
		}
		row := []string{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			shortID(r.CycleID),
			fmt.Sprint(r.FilesScanned),
			fmt.Sprint(r.FileErrors),
			fmt.Sprint(r.TotalFindings),
			strings.Join(top, ", "),
			status,
		}
		if err := t.Append(row); err != nil {
			return err
		}
	}
	return t.Render()
}

func printFooter(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	rules := map[string]int{}
	for _, f := range findings {
		rules[f.Rule]++
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d across %d rule(s)\n", len(findings), len(rules))
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.FileErrors > 0 {
		fmt.Fprintf(w, "Files skipped with errors: %d\n", opts.FileErrors)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func colorRule(s string) string {
	return "\x1b[33m" + s + "\x1b[0m"
}
