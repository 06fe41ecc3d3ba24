// Package engine walks a scan root and runs every accepted file through
// extraction and the rule engine, one file at a time. A failure in one file
// is logged and recorded; it never stops the walk. External consumers
// should use the facade in pkg/core.
package engine
