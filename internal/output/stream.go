package output

import (
	"encoding/json"
	"fmt"
	"io"

	"occubench/internal/checks"
)

// Structured formats shared by the console, emit and file sinks.
const (
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// stream encodes what a sink receives in one structured format. json
// collects check results and writes them as one array on close; lifecycle
// events are dropped. ndjson writes every event and result as it arrives,
// one Event per line. Callers serialise access.
type stream struct {
	w       io.Writer
	format  string
	results []checks.Result
}

func newStream(w io.Writer, format string) (*stream, error) {
	if format != FormatJSON && format != FormatNDJSON {
		return nil, fmt.Errorf("unsupported structured format: %s (must be one of: json, ndjson)", format)
	}
	return &stream{w: w, format: format}, nil
}

func (s *stream) write(v any) error {
	var line Event
	switch t := v.(type) {
	case checks.Result:
		if s.format == FormatJSON {
			s.results = append(s.results, t)
			return nil
		}
		line = eventFromResult(t)
	case Event:
		if s.format == FormatJSON {
			return nil
		}
		line = t
	default:
		return nil
	}
	if err := json.NewEncoder(s.w).Encode(line); err != nil {
		return err
	}
	return flush(s.w)
}

func (s *stream) close() error {
	if s.format != FormatJSON {
		return nil
	}
	results := s.results
	if results == nil {
		results = []checks.Result{}
	}
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}
	return flush(s.w)
}

// flush pushes buffered output through when w supports it, so NDJSON
// consumers see each line as soon as it is written.
func flush(w io.Writer) error {
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
