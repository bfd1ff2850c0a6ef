package checks

// Report is the ordered record of one validation run. It is a snapshot:
// running more checks does not change a Report already handed out.
type Report struct {
	results []Result
}

// NewReport builds a Report from results in the given order.
func NewReport(results ...Result) Report {
	return Report{results: append([]Result(nil), results...)}
}

// Results returns a copy of the results in invocation order.
func (r Report) Results() []Result {
	return append([]Result(nil), r.results...)
}

func (r Report) Len() int { return len(r.results) }

// OK reports whether every result carries the "OK" message. Callers use it
// to decide whether to proceed to coding and scoring.
func (r Report) OK() bool {
	for _, res := range r.results {
		if res.Message != MessageOK {
			return false
		}
	}
	return true
}

// Failed returns the results that did not pass, in order.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Columns returns the report as a table keyed by field name.
func (r Report) Columns() map[string][]any {
	cols := map[string][]any{
		"check":   make([]any, 0, len(r.results)),
		"success": make([]any, 0, len(r.results)),
		"message": make([]any, 0, len(r.results)),
	}
	for _, res := range r.results {
		cols["check"] = append(cols["check"], res.Check)
		cols["success"] = append(cols["success"], res.Success)
		cols["message"] = append(cols["message"], res.Message)
	}
	return cols
}
