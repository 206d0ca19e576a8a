package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a logger writing to w. JSON is used when the process emits
// machine-readable output, text otherwise.
func New(w io.Writer, json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init creates and sets the package-level default slog logger.
//
// logFile, when set, receives JSON records regardless of mode. Otherwise an
// interactive screen discards diagnostics so they cannot corrupt the
// display, NDJSON output logs JSON on stderr so the two streams stay
// separable, and text output logs text on stderr.
//
// The returned function closes the log file, if one was opened.
func Init(interactive, ndjson bool, logFile string, level slog.Level) (func() error, error) {
	closer := func() error { return nil }
	var logger *slog.Logger
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return closer, fmt.Errorf("open log file: %w", err)
		}
		closer = f.Close
		logger = New(f, true, level)
	case interactive:
		logger = New(io.Discard, false, level)
	default:
		logger = New(os.Stderr, ndjson, level)
	}
	slog.SetDefault(logger)
	return closer, nil
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
