package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// inferFormat maps an --out extension to its structured format.
func inferFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("cannot infer output format from file extension %q", ext)
	}
}

// FileSink writes the run to a file. NDJSON lines are flushed as they are
// written so a reader tailing the file sees each check as it finishes.
type FileSink struct {
	mu   sync.Mutex
	path string
	file *os.File
	buf  *bufio.Writer
	s    *stream
}

// NewFileSink creates path, and any missing parent directories. An empty
// format is inferred from the extension.
func NewFileSink(path string, format string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("output path required")
	}
	if format == "" {
		var err error
		if format, err = inferFormat(path); err != nil {
			return nil, err
		}
	}
	if format != FormatJSON && format != FormatNDJSON {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	buf := bufio.NewWriter(f)
	s, _ := newStream(buf, format)
	return &FileSink{path: path, file: f, buf: buf, s: s}, nil
}

func (f *FileSink) Write(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.s.write(v); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.s.close()
	if ferr := f.buf.Flush(); err == nil {
		err = ferr
	}
	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close %s: %w", f.path, err)
	}
	return nil
}
