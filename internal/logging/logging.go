// Package logging builds the service logger: text on stderr, plus JSON to a
// file when one is configured.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a config level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Setup creates the service logger writing text to stderr. When logFile is
// set, records are also written there as JSON. The returned cleanup closes
// the file and is always safe to call.
func Setup(stderr io.Writer, logFile string, level slog.Level) (*slog.Logger, func() error, error) {
	if logFile == "" {
		return slog.New(newTextHandler(stderr, level)), func() error { return nil }, nil
	}

	// #nosec G304 -- log path is operator-provided
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return WithWriters(stderr, file, level), file.Close, nil
}

// WithWriters fans records out to a text handler on stderr and a JSON
// handler on file.
func WithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		newTextHandler(stderr, level),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}

func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
