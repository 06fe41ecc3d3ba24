package agent

// State is the orchestrator's position in the poll, walk, report, sleep
// cycle.
type State int32

const (
	Idle State = iota
	Authorizing
	Walking
	ReportingResults
	Sleeping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authorizing:
		return "authorizing"
	case Walking:
		return "walking"
	case ReportingResults:
		return "reporting_results"
	case Sleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}
