// Package log provides the logging interface used by netlayer.
// The transports are silent by default (Nop); applications inject their own
// Logger or use StdLogger.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for lifecycle events such as listener open/close.
	LevelInfo
	// LevelWarn is for recoverable problems.
	LevelWarn
	// LevelError is for failed operations.
	LevelError
	// LevelSilent disables all logging.
	LevelSilent
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error",
// "silent") to a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger is the sink the transports write lifecycle and error events to.
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(format string, args ...interface{}) {}
func (NopLogger) Info(format string, args ...interface{})  {}
func (NopLogger) Warn(format string, args ...interface{})  {}
func (NopLogger) Error(format string, args ...interface{}) {}

// Nop returns a NopLogger.
func Nop() Logger {
	return NopLogger{}
}

// StdLogger writes timestamped lines to an io.Writer with level filtering.
// Loggers derived with Named share the writer and its lock.
type StdLogger struct {
	mu     *sync.Mutex
	writer io.Writer
	level  Level
	prefix string
}

// StdLoggerOption configures a StdLogger.
type StdLoggerOption func(*StdLogger)

// WithWriter sets the output writer.
func WithWriter(w io.Writer) StdLoggerOption {
	return func(l *StdLogger) {
		l.writer = w
	}
}

// WithLevel sets the minimum level that is written.
func WithLevel(level Level) StdLoggerOption {
	return func(l *StdLogger) {
		l.level = level
	}
}

// WithPrefix sets the line prefix. An empty prefix omits it.
func WithPrefix(prefix string) StdLoggerOption {
	return func(l *StdLogger) {
		l.prefix = prefix
	}
}

// NewStdLogger creates a StdLogger writing to os.Stderr at Info level
// with the "[netlayer]" prefix, then applies opts.
func NewStdLogger(opts ...StdLoggerOption) *StdLogger {
	l := &StdLogger{
		mu:     &sync.Mutex{},
		writer: os.Stderr,
		level:  LevelInfo,
		prefix: "[netlayer]",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Named returns a logger whose prefix is extended with name,
// e.g. "[netlayer]" becomes "[netlayer/tcp]".
func (l *StdLogger) Named(name string) *StdLogger {
	prefix := "[" + name + "]"
	if p := strings.TrimSuffix(l.prefix, "]"); p != l.prefix {
		prefix = p + "/" + name + "]"
	}
	return &StdLogger{
		mu:     l.mu,
		writer: l.writer,
		level:  l.level,
		prefix: prefix,
	}
}

// Level reports the minimum level written by l.
func (l *StdLogger) Level() Level {
	return l.level
}

func (l *StdLogger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.prefix != "" {
		fmt.Fprintf(l.writer, "%s %s %s %s\n", timestamp, l.prefix, level, msg)
	} else {
		fmt.Fprintf(l.writer, "%s %s %s\n", timestamp, level, msg)
	}
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *StdLogger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Default returns a StdLogger writing to stderr at Info level.
func Default() Logger {
	return NewStdLogger()
}
