package output

import (
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an extra structured stream next to the console output,
// typically to stdout for a calling pipeline. See stream for the formats.
type EmitSink struct {
	mu sync.Mutex
	s  *stream
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	s, err := newStream(w, format)
	if err != nil {
		return nil, fmt.Errorf("--emit: %w", err)
	}
	return &EmitSink{s: s}, nil
}

func (e *EmitSink) Write(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.write(v)
}

func (e *EmitSink) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s.close()
}
