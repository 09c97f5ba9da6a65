package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// New builds a logger that fans records out to a human readable text handler
// and a JSON handler that only receives errors.
func New(out, errOut io.Writer, level string) *slog.Logger {
	textHandler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	jsonHandler := slog.NewJSONHandler(errOut, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(slogmulti.Fanout(textHandler, jsonHandler))
}

// Setup installs the stdout/stderr logger as the process default.
func Setup(level string) *slog.Logger {
	logger := New(os.Stdout, os.Stderr, level)
	slog.SetDefault(logger)
	return logger
}
