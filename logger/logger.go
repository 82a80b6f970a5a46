// Package logger provides structured logging for the deckstream engine.
//
// It wraps Go's standard log/slog with package-level convenience functions,
// a LOG_LEVEL environment override, and text/JSON output selection. All
// exported functions use the global DefaultLogger, which is safe for
// concurrent use.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log format constants.
const (
	FormatJSON = "json"
	FormatText = "text"
)

var (
	// DefaultLogger is the global structured logger instance.
	DefaultLogger *slog.Logger

	logOutput io.Writer = os.Stderr
	mu        sync.Mutex
)

func init() {
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = ParseLevel(envLevel)
	}
	DefaultLogger = slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))
}

// ParseLevel converts a level name to a slog.Level. Unknown names map to Info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// SetLevel changes the logging level for all subsequent log operations.
// It replaces the entire logger instance, which is safe for concurrent use.
func SetLevel(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	DefaultLogger = slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))
}

// SetVerbose enables debug-level logging when verbose is true, otherwise info-level.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logOutput = w
	DefaultLogger = slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Configure reconfigures the global logger from a level name and format.
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if format == FormatJSON {
		DefaultLogger = slog.New(slog.NewJSONHandler(logOutput, opts))
		return
	}
	DefaultLogger = slog.New(slog.NewTextHandler(logOutput, opts))
}

// Debug logs a debug-level message with structured key-value attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// Info logs an informational message with structured key-value attributes.
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// Warn logs a warning message with structured attributes.
// Use for recoverable errors or unexpected but non-critical situations.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// InfoContext logs an informational message with context for request tracing.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}
