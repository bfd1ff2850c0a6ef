package output

import (
	"errors"
	"fmt"

	"occubench/internal/checks"
)

// Sink receives the lifecycle events and check results of one run.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans a run out to its sinks and keeps the tallies reported in
// the run.finished event.
type Manager struct {
	sinks  []Sink
	runID  string
	checks int
	failed int
}

func NewManager(sinks ...Sink) (*Manager, error) {
	m := &Manager{}
	for _, s := range sinks {
		if err := m.AddSink(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) AddSink(s Sink) error {
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Start opens a run. The tallies are reset and e.RunID is stamped on the
// closing event.
func (m *Manager) Start(e Event) error {
	e.Type = EventRunStarted
	m.runID = e.RunID
	m.checks, m.failed = 0, 0
	return m.Write(e)
}

// Result records one check outcome.
func (m *Manager) Result(r checks.Result) error {
	m.checks++
	if !r.Success {
		m.failed++
	}
	return m.Write(r)
}

// Finish closes the run with its exit code and the error that stopped it,
// if any.
func (m *Manager) Finish(exitCode int, runErr error) error {
	e := Event{
		Type:     EventRunFinished,
		RunID:    m.runID,
		Checks:   m.checks,
		Failed:   m.failed,
		ExitCode: exitCode,
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	return m.Write(e)
}

// Write sends v to every sink and joins their errors.
func (m *Manager) Write(v any) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("writing run output: %w", err)
	}
	return nil
}

func (m *Manager) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing run output: %w", err)
	}
	return nil
}
