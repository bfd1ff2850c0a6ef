package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"occubench/internal/checks"

	"github.com/fatih/color"
)

// FormatText is the console's human-readable format: one line per result.
const FormatText = "text"

// ConsoleSink writes results to the terminal as text, or in one of the
// structured formats. A status filter hides results of other statuses and
// never hides lifecycle events.
type ConsoleSink struct {
	mu      sync.Mutex
	w       io.Writer
	s       *stream
	allowed map[checks.Status]bool
}

// NewConsoleSink falls back to stdout and the text format. An unknown
// format is reported by the first Write.
func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	c := &ConsoleSink{w: w}
	if format != "" && format != FormatText {
		c.s = &stream{w: w, format: format}
	}
	for _, st := range filterStatuses {
		if c.allowed == nil {
			c.allowed = make(map[checks.Status]bool)
		}
		c.allowed[checks.Status(strings.ToUpper(st))] = true
	}
	return c
}

func (c *ConsoleSink) Write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, isResult := v.(checks.Result)
	if isResult && c.allowed != nil && !c.allowed[r.Status()] {
		return nil
	}
	if c.s != nil {
		if err := c.checkFormat(); err != nil {
			return err
		}
		return c.s.write(v)
	}
	if !isResult {
		return nil
	}

	line := fmt.Sprintf("[%s] %s", statusLabel(r.Status()), r.Check)
	if r.Message != "" && r.Message != checks.MessageOK {
		line += " - " + r.Message
	}
	if _, err := fmt.Fprintln(c.w, line); err != nil {
		return err
	}
	return flush(c.w)
}

func (c *ConsoleSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s == nil {
		return nil
	}
	if err := c.checkFormat(); err != nil {
		return err
	}
	return c.s.close()
}

func (c *ConsoleSink) checkFormat() error {
	if c.s.format != FormatJSON && c.s.format != FormatNDJSON {
		return fmt.Errorf("unsupported console format: %s", c.s.format)
	}
	return nil
}

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// statusLabel colours the status when the console supports it. fatih/color
// disables itself when stdout is not a terminal or NO_COLOR is set.
func statusLabel(st checks.Status) string {
	if st == checks.StatusPass {
		return passColor.Sprint(st)
	}
	return failColor.Sprint(st)
}
