// Package dlpagent provides the command-line interface for the DLP agent.
// It wires configuration, logging and the scan loop together and exposes
// one-shot helpers (scan, extract, test-rules) for operators.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/redactyl/dlpagent/cmd/dlpagent"
//	func main() { dlpagent.Execute() }
package dlpagent
