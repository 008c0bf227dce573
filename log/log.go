// Package log provides a thin, concurrency-safe wrapper over log/slog with
// a Trace level below Debug, text/JSON output, and an optional colorized
// pretty handler. The zero-valued Logger is a no-op, so library types can
// embed one unconditionally.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger provides a simplified structured logging interface.
// The zero value discards all messages.
type Logger struct {
	*slog.Logger
}

// Make creates a new [Logger] that writes to the specified writer.
// Optional configuration can be applied using functional options like
// [WithFormat], [WithLevel], [WithTimeLayout], and [WithPretty].
func Make(w io.Writer, opts ...Option) Logger {
	cfg := apply(defaultConfig(w), opts...)

	return Logger{Logger: slog.New(cfg.handler())}
}

// With returns a new [Logger] that includes the given attributes in each
// log message.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}

	return Logger{Logger: slog.New(l.Handler().WithAttrs(attrs))}
}

// TraceContext logs a message at Trace level with the provided context.
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelTrace, msg, attrs...)
}

// Trace logs a message at Trace level.
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.logContext(context.Background(), LevelTrace, msg, attrs...)
}

// DebugContext logs a message at Debug level with the provided context.
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelDebug, msg, attrs...)
}

// Debug logs a message at Debug level.
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.logContext(context.Background(), LevelDebug, msg, attrs...)
}

// InfoContext logs a message at Info level with the provided context.
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelInfo, msg, attrs...)
}

// Info logs a message at Info level.
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.logContext(context.Background(), LevelInfo, msg, attrs...)
}

// WarnContext logs a message at Warn level with the provided context.
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelWarn, msg, attrs...)
}

// Warn logs a message at Warn level.
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.logContext(context.Background(), LevelWarn, msg, attrs...)
}

// ErrorContext logs a message at Error level with the provided context.
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelError, msg, attrs...)
}

// Error logs a message at Error level.
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.logContext(context.Background(), LevelError, msg, attrs...)
}

func (l Logger) logContext(ctx context.Context, level Level, msg string, attrs ...slog.Attr) {
	// Silently return for zero value loggers
	if l.Logger == nil {
		return
	}

	l.LogAttrs(ctx, slog.Level(level), msg, attrs...)
}

// defaultLogger is the process-wide logger used by the package-level
// functions. Reconfigured atomically by [Config].
var defaultLogger atomic.Pointer[Logger]

func init() {
	l := Make(os.Stderr)
	defaultLogger.Store(&l)
}

// Config replaces the default logger configuration. The new configuration
// applies to all subsequent package-level logging calls.
func Config(opts ...Option) {
	l := Make(os.Stderr, opts...)
	defaultLogger.Store(&l)
}

// Default returns the current default logger.
func Default() Logger { return *defaultLogger.Load() }

// TraceContext logs to the default logger at Trace level.
func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().TraceContext(ctx, msg, attrs...)
}

// Trace logs to the default logger at Trace level.
func Trace(msg string, attrs ...slog.Attr) { Default().Trace(msg, attrs...) }

// DebugContext logs to the default logger at Debug level.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().DebugContext(ctx, msg, attrs...)
}

// Debug logs to the default logger at Debug level.
func Debug(msg string, attrs ...slog.Attr) { Default().Debug(msg, attrs...) }

// InfoContext logs to the default logger at Info level.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().InfoContext(ctx, msg, attrs...)
}

// Info logs to the default logger at Info level.
func Info(msg string, attrs ...slog.Attr) { Default().Info(msg, attrs...) }

// WarnContext logs to the default logger at Warn level.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().WarnContext(ctx, msg, attrs...)
}

// Warn logs to the default logger at Warn level.
func Warn(msg string, attrs ...slog.Attr) { Default().Warn(msg, attrs...) }

// ErrorContext logs to the default logger at Error level.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().ErrorContext(ctx, msg, attrs...)
}

// Error logs to the default logger at Error level.
func Error(msg string, attrs ...slog.Attr) { Default().Error(msg, attrs...) }
