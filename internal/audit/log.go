// Package audit keeps a local JSONL trail of completed scan cycles. Records
// only ever contain censored values.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/redactyl/dlpagent/internal/types"
)

// CycleRecord summarises one cycle.
type CycleRecord struct {
	Timestamp     time.Time       `json:"timestamp"`
	CycleID       string          `json:"cycle_id"`
	Root          string          `json:"root"`
	Authorized    bool            `json:"authorized"`
	FilesScanned  int             `json:"files_scanned"`
	FileErrors    int             `json:"file_errors"`
	TotalFindings int             `json:"total_findings"`
	RuleCounts    map[string]int  `json:"rule_counts,omitempty"`
	Reported      bool            `json:"reported"`
	Duration      string          `json:"duration"`
	Error         string          `json:"error,omitempty"`
	Findings      []types.Finding `json:"findings,omitempty"`
}

// Log appends CycleRecords to a file.
type Log struct {
	path string
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log writes to.
func (a *Log) Path() string { return a.path }

// Append writes rec as one JSON line. The file is created owner-only.
func (a *Log) Append(rec CycleRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o700); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// LoadHistory returns every readable record, newest first. Lines that do
// not decode are skipped.
func (a *Log) LoadHistory() ([]CycleRecord, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []CycleRecord
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec CycleRecord
		if err := dec.Decode(&rec); err != nil {
			break
		}
		records = append(records, rec)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Summary describes a cycle for NewCycleRecord.
type Summary struct {
	CycleID      string
	Root         string
	Authorized   bool
	Findings     []types.Finding
	FilesScanned int
	FileErrors   int
	Reported     bool
	Duration     time.Duration
	Err          error
}

// NewCycleRecord builds a record from a cycle summary.
func NewCycleRecord(s Summary) CycleRecord {
	rec := CycleRecord{
		Timestamp:     time.Now().UTC(),
		CycleID:       s.CycleID,
		Root:          s.Root,
		Authorized:    s.Authorized,
		FilesScanned:  s.FilesScanned,
		FileErrors:    s.FileErrors,
		TotalFindings: len(s.Findings),
		Reported:      s.Reported,
		Duration:      s.Duration.String(),
		Findings:      s.Findings,
	}
	if len(s.Findings) > 0 {
		rec.RuleCounts = make(map[string]int)
		for _, f := range s.Findings {
			rec.RuleCounts[f.Rule]++
		}
	}
	if s.Err != nil {
		rec.Error = s.Err.Error()
	}
	return rec
}

// TopRules returns rule names from counts ordered by descending count, then
// name.
func TopRules(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
