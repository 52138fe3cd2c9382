// Package logger wraps zerolog with the constructors and context helpers
// used across the gateway. Request-scoped loggers travel in context.Context
// and are recovered with FromContext.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API is available on *Logger.
type Logger struct {
	zerolog.Logger
}

// New returns a JSON logger writing to stdout, tagged with the service name.
func New(service, level string) *Logger {
	return NewWithWriter(os.Stdout, service, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, service, level string) *Logger {
	zerolog.TimestampFieldName = "ts"
	zerolog.DurationFieldUnit = time.Millisecond

	l := zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	return &Logger{l}
}

// ParseLevel maps a textual level to zerolog's. Unknown values fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Nop returns a *Logger that discards everything. Intended for tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// WithField returns a child logger carrying an extra string field.
func (l *Logger) WithField(key, value string) *Logger {
	return &Logger{l.With().Str(key, value).Logger()}
}

// FromContext returns the logger stored in ctx. When none was stored it returns
// a disabled logger, never nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*zerolog.Ctx(ctx)}
}
