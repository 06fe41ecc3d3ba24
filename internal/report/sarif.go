package report

import (
	"encoding/json"
	"io"

	"github.com/redactyl/dlpagent/internal/types"
)

type sarif struct {
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifResult struct {
	RuleID              string       `json:"ruleId"`
	RuleIndex           int          `json:"ruleIndex"`
	Level               string       `json:"level"`
	Message             sarifMessage `json:"message"`
	Locations           []sarifLoc   `json:"locations"`
	PartialFingerprints sarifPartial `json:"partialFingerprints"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt `json:"artifactLocation"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifPartial struct {
	Fingerprint string `json:"dlpagent/v1"`
}

// WriteSARIF writes findings as SARIF 2.1.0. Each rule that produced a
// finding is listed once in the driver's rule table. Messages carry the
// censored value only.
func WriteSARIF(w io.Writer, findings []types.Finding, version string) error {
	return WriteSARIFWithStats(w, findings, version, nil)
}

// WriteSARIFWithStats is WriteSARIF with scan counters attached to the run
// as the scanStats property.
func WriteSARIFWithStats(w io.Writer, findings []types.Finding, version string, stats map[string]int) error {
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "dlpagent", Version: version}},
		Results: []sarifResult{},
	}
	if len(stats) > 0 {
		run.Properties = map[string]any{"scanStats": stats}
	}
	index := map[string]int{}
	for _, f := range findings {
		idx, ok := index[f.Rule]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			index[f.Rule] = idx
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               f.Rule,
				ShortDescription: sarifMessage{Text: "Sensitive data matched by rule " + f.Rule},
			})
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.Rule,
			RuleIndex: idx,
			Level:     "warning",
			Message:   sarifMessage{Text: f.Rule + " match: " + f.Value},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{ArtifactLocation: sarifArt{URI: f.Path}},
			}},
			PartialFingerprints: sarifPartial{Fingerprint: f.Fingerprint},
		})
	}
	doc := sarif{Version: "2.1.0", Runs: []sarifRun{run}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
