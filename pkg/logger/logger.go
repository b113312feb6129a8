// Package logger provides structured logging for the gateway, built on log/slog.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	current *slog.Logger
)

func init() {
	current = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Initialize installs the process-wide logger. Level is one of "debug", "info",
// "warn", "error"; unrecognized values fall back to "info".
func Initialize(level string, addSource bool) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	l := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
	}))

	mu.Lock()
	current = l
	mu.Unlock()
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// With returns a logger with the given key/value pairs attached.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// FromContext returns a logger enriched with any request/session-scoped
// attributes stashed in ctx, falling back to the process logger.
func FromContext(ctx context.Context) *slog.Logger {
	if v, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && v != nil {
		return v
	}
	return get()
}

type contextKey struct{}

// WithContext attaches l to ctx so FromContext can retrieve it downstream.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func Debugf(format string, args ...any) { get().Debug(sprintf(format, args...)) }
func Infof(format string, args ...any)  { get().Info(sprintf(format, args...)) }
func Warnf(format string, args ...any)  { get().Warn(sprintf(format, args...)) }
func Errorf(format string, args ...any) { get().Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
