package nscache

import (
	"context"
	"log/slog"
)

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around your logging
// stack (see log/zap, log/logrus, log/slog). If Logger is nil in Options,
// logging is disabled unless Debug is set, in which case slog.Default is
// used so debug traces are not silently lost.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// slogLogger backs the Debug-without-Logger default. The public adapter
// lives in log/slog; this private copy avoids an import cycle.
type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Debug(msg string, f Fields) { s.log(slog.LevelDebug, msg, f) }
func (s slogLogger) Info(msg string, f Fields)  { s.log(slog.LevelInfo, msg, f) }
func (s slogLogger) Warn(msg string, f Fields)  { s.log(slog.LevelWarn, msg, f) }
func (s slogLogger) Error(msg string, f Fields) { s.log(slog.LevelError, msg, f) }

func (s slogLogger) log(level slog.Level, msg string, f Fields) {
	attrs := make([]slog.Attr, 0, len(f))
	for k, v := range f {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.l.LogAttrs(context.Background(), level, msg, attrs...)
}
