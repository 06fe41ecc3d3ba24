package types

// MatchRecord is a single rule hit inside one body of text. Value is always
// the censored form; the raw match never leaves the rule engine.
type MatchRecord struct {
	Rule  string `json:"rule"`
	Value string `json:"value"`
}

// Finding is a MatchRecord tagged with the file it came from, as reported to
// the controller at the end of a cycle.
type Finding struct {
	Path        string `json:"path"`
	Rule        string `json:"rule"`
	Value       string `json:"value"`
	Fingerprint string `json:"fingerprint"`
}

// SchemaVersion identifies the Report layout.
const SchemaVersion = "1"

// Report is the batch of findings delivered once per cycle.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	Schema   string    `json:"schema_version"`
	CycleID  string    `json:"cycle_id,omitempty"`
	Host     string    `json:"host,omitempty"`
	Root     string    `json:"root"`
	Findings []Finding `json:"findings"`
}
