// Package logging builds the diagnostic logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/model"
)

// Options holds configuration for the diagnostic logger.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	Prefix          string
}

// DefaultOptions returns default options for console logging.
func DefaultOptions() Options {
	return Options{
		Level:           log.InfoLevel,
		Formatter:       log.TextFormatter,
		ReportTimestamp: false,
		Prefix:          "todosync",
	}
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// New creates the logger described by cfg. When cfg.File is set the log is
// appended there with timestamps; the returned closer releases it.
// verbose forces debug level.
func New(cfg model.LogConfig, verbose bool) (*log.Logger, io.Closer, error) {
	opts := DefaultOptions()
	if lvl := strings.TrimSpace(cfg.Level); lvl != "" {
		parsed, err := log.ParseLevel(lvl)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing log level %q: %w", lvl, err)
		}
		opts.Level = parsed
	}
	if verbose {
		opts.Level = log.DebugLevel
	}

	if cfg.File == "" {
		return NewWithWriter(os.Stderr, opts), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	opts.ReportTimestamp = true
	return NewWithWriter(f, opts), f, nil
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *log.Logger {
	return NewWithWriter(io.Discard, DefaultOptions())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
