package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return slog.New(NewHandler(level))
}

// NewHandler returns the process-wide text handler.
func NewHandler(level string) slog.Handler {
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
}

// KeyHint returns the tail of a credential, safe to print in logs.
func KeyHint(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 5 {
		return "…" + strings.Repeat("*", len(key))
	}
	return "…" + key[len(key)-5:]
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
