// Package logging builds the structured logger used by the tally CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ParseLevel maps a config or flag value (debug, info, warn, error) to a
// slog level. An empty value means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New returns a slog.Logger that writes human-readable lines to w through
// charmbracelet/log.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.Level(level),
		Prefix:          "tally",
	})
	return slog.New(handler)
}
