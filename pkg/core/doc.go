// Package core is a small, stable facade over the agent's rule engine,
// extractors and tree scanner for programs that want to embed them without
// the controller loop.
//
// Example:
//
//	res, err := core.ScanTree(ctx, core.Config{
//		Root:      "/srv/share",
//		FileTypes: []string{"pdf", "docx", "csv"},
//		Rules:     []core.Rule{{Name: "ssn", Regex: `\d{3}-\d{2}-\d{4}`, Prefixes: []string{"SSN:"}}},
//	})
//	if err != nil { /* handle */ }
//	_ = core.WriteReport(os.Stdout, core.NewReport("myapp", "1.0", "/srv/share", res.Findings))
package core
