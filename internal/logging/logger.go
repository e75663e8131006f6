// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05"

type Options struct {
	// Path is the log file. Empty with Console false disables logging.
	Path string
	// Level is a zerolog level name; empty means info.
	Level string
	// Console writes human readable lines to Out (stderr by default) instead
	// of JSON to the file. The TUI owns the terminal so it always logs to a file.
	Console bool
	Out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger and the closer of its sink.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	if opts.Console {
		out := opts.Out
		if out == nil {
			out = os.Stderr
		}
		w := zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if opts.Path == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	return zerolog.New(f).Level(level).With().Timestamp().Logger(), f, nil
}

func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
