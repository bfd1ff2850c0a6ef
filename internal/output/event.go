package output

import "occubench/internal/checks"

// Lifecycle event types.
const (
	EventRunStarted  = "run.started"
	EventCheckResult = "check.result"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - check.result
// - run.finished
//
// JSON mode remains an aggregate of checks.Result values.
type Event struct {
	Type   string        `json:"type"`
	Status checks.Status `json:"status,omitempty"`
	*checks.Result
	RunID     string `json:"run_id,omitempty"`
	Data      string `json:"data,omitempty"`
	Checklist string `json:"checklist,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	Checks    int    `json:"checks,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	ExitCode  int    `json:"exit_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

func eventFromResult(r checks.Result) Event {
	return Event{Type: EventCheckResult, Status: r.Status(), Result: &r}
}
