package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog so call sites get structured key/value logging
// without importing slog everywhere.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing text records to stdout. Debug level is
// enabled outside of production.
func New(prod bool) *Logger {
	level := slog.LevelDebug
	if prod {
		level = slog.LevelInfo
	}
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})),
	}
}

// Fatal is equivalent to Error followed by os.Exit(1).
func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
