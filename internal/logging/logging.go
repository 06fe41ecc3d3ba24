// Package logging builds the agent's zerolog logger. Loggers are passed
// explicitly to the components that need them; nothing here touches the
// zerolog global logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	// Verbosity: 0=warn, 1=info, 2=debug (with caller), 3+=trace.
	Verbosity int
	// File, when set, receives JSON lines in addition to the console.
	File string
	// JSON writes JSON to stderr instead of the console format.
	JSON    bool
	NoColor bool
	// Out overrides stderr, mainly for tests.
	Out io.Writer
}

// Level maps a verbosity count to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// New returns a logger and a closer for any file it opened. The closer is
// never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var console io.Writer = out
	if !opts.JSON {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: opts.NoColor}
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.File != "" {
		f, err := openLogFile(opts.File)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, f)
			closer = f
		}
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).Level(Level(opts.Verbosity)).With().Timestamp()
	if opts.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	logger := ctx.Logger()
	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("path", opts.File).Msg("Failed to open log file, logging to console only")
	}
	return logger, closer, nil
}

// Component returns l tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// OperationStart logs the start of an operation and returns a function that
// logs its completion with the elapsed time.
func OperationStart(l zerolog.Logger, operation string) func() {
	start := time.Now()
	l.Debug().Str("operation", operation).Msg("Operation started")
	return func() {
		l.Debug().Str("operation", operation).Dur("duration", time.Since(start)).Msg("Operation completed")
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
