// Package log provides structured logging for the bba module. It wraps
// Go's log/slog with per-module child loggers, the same pattern the rest
// of the eth2030 client tree uses.
package log

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with module-scoped context.
type Logger struct {
	inner *slog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelInfo)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{inner: slog.New(h)}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. This
// is useful for testing or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute. An
// agreement.Instance obtains its own logger via Module("agreement"). Safe
// to call on a nil *Logger: returns nil, which remains safe to log through.
func (l *Logger) Module(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{inner: l.inner.With("module", name)}
}

// With returns a child logger with additional key-value context. Safe to
// call on a nil *Logger: returns nil.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at LevelDebug. Safe to call on a nil *Logger (no-op).
func (l *Logger) Debug(msg string, args ...any) {
	if l == nil {
		return
	}
	l.inner.Debug(msg, args...)
}

// Info logs at LevelInfo. Safe to call on a nil *Logger (no-op).
func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	l.inner.Info(msg, args...)
}

// Warn logs at LevelWarn. Safe to call on a nil *Logger (no-op).
func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	l.inner.Warn(msg, args...)
}

// Error logs at LevelError. Safe to call on a nil *Logger (no-op).
func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		return
	}
	l.inner.Error(msg, args...)
}

// ---------------------------------------------------------------------------
// Package-level convenience functions -- delegate to defaultLogger.
// ---------------------------------------------------------------------------

// Debug logs at LevelDebug using the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

// Info logs at LevelInfo using the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs at LevelWarn using the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs at LevelError using the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
