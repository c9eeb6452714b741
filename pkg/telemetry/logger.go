// Package telemetry provides the client's structured logging and tracing:
// a zerolog-backed Logger with the teacher's Named/With-field shape, and a
// Tracer interface with an OpenTelemetry-backed implementation behind the
// "otel" build tag, matching how the teacher gates its own tracer.
package telemetry

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger, giving it the Named/With-fields shape the
// rest of this client's ancestor code expects, instead of zerolog's own
// chained-context builder style.
type Logger struct {
	zl zerolog.Logger
}

// Fields is a set of structured key/value pairs attached to one log entry.
type Fields map[string]interface{}

// NewLogger builds a Logger writing to w. Pretty selects zerolog's
// human-readable console writer (suitable for a terminal); false emits
// newline-delimited JSON (suitable for log aggregation).
func NewLogger(w io.Writer, pretty bool) *Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// With returns a new Logger carrying fields in addition to this one's.
func (l *Logger) With(fields Fields) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger()}
}

// Named returns a new Logger tagged with an additional "component" field,
// so nested callers (e.g. session -> handshake -> framing) each narrow the
// field rather than replacing it.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

func (l *Logger) Debug(msg string, fields ...Fields) { l.log(zerolog.DebugLevel, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Fields)  { l.log(zerolog.InfoLevel, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Fields)  { l.log(zerolog.WarnLevel, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Fields) { l.log(zerolog.ErrorLevel, msg, fields...) }

func (l *Logger) log(level zerolog.Level, msg string, extra ...Fields) {
	ev := l.zl.WithLevel(level)
	for _, f := range extra {
		for k, v := range f {
			ev = ev.Interface(k, v)
		}
	}
	ev.Msg(msg)
}

// --- Global logger ---

var (
	globalLogger   = NewLogger(os.Stderr, true)
	globalLoggerMu sync.RWMutex
)

// SetLogger replaces the package-level default logger.
func SetLogger(l *Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

// GetLogger returns the package-level default logger.
func GetLogger() *Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// NullLogger returns a Logger that discards all output, for tests that
// exercise code paths which log as a side effect.
func NullLogger() *Logger {
	return NewLogger(io.Discard, false)
}
