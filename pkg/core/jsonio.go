package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/redactyl/dlpagent/internal/types"
)

// NewReport wraps findings in the envelope the controller expects.
func NewReport(tool, version, root string, findings []Finding) Report {
	if findings == nil {
		findings = []Finding{}
	}
	return Report{Tool: tool, Version: version, Schema: types.SchemaVersion, Root: root, Findings: findings}
}

// WriteReport encodes r as indented JSON.
func WriteReport(w io.Writer, r Report) error {
	if r.Schema == "" {
		r.Schema = types.SchemaVersion
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// ReadReport decodes a report and rejects schema versions it does not know.
func ReadReport(rd io.Reader) (Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if r.Schema != types.SchemaVersion {
		return Report{}, fmt.Errorf("unsupported report schema %q", r.Schema)
	}
	return r, nil
}
