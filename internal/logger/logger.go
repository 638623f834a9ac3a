// Package logger provides a structured logging abstraction that allows
// swapping underlying implementations (slog, zerolog, zap)
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level represents log severity levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

// String returns the lowercase name of the level
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// ParseLevel converts a config string to a Level. Unknown names mean info.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return LevelInfo
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// Helper functions to create fields with common types
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Ledger fields get fixed keys so log queries can join across components

// Day is the logical day an entry was attributed to
func Day(day fmt.Stringer) Field {
	return Field{Key: "day_key", Value: day.String()}
}

// EventID is a journal event id
func EventID(id string) Field {
	return Field{Key: "event_id", Value: id}
}

// LocalID is a widget queue entry id
func LocalID(id int64) Field {
	return Field{Key: "local_id", Value: id}
}

// Logger is the main logging interface that can be implemented by different
// logging backends (slog, zerolog, zap, etc.)
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a new Logger with the given fields added to all log entries
	With(fields ...Field) Logger
	// WithContext returns a new Logger that extracts context values (request_id, trigger)
	WithContext(ctx context.Context) Logger

	// Level returns the current log level
	Level() Level
}

// Backends accepted by New
const (
	BackendSlog    = "slog"
	BackendZap     = "zap"
	BackendZerolog = "zerolog"
)

// Config holds logging configuration
type Config struct {
	// Level is the minimum log level to output
	Level Level
	// Format is the output format: "json" or "text"
	Format string
	// Backend selects the implementation: "slog", "zap" or "zerolog"
	Backend string
	// AddSource adds source file:line to log entries
	AddSource bool
	// Output defaults to stderr so command output on stdout stays parseable
	Output io.Writer
}

// New builds a Logger for cfg.Backend, falling back to slog
func New(cfg Config) Logger {
	switch cfg.Backend {
	case BackendZap:
		return NewZapLogger(cfg)
	case BackendZerolog:
		return NewZerologLogger(cfg)
	default:
		return NewSlogLogger(cfg)
	}
}

func (c Config) output() io.Writer {
	if c.Output == nil {
		return os.Stderr
	}
	return c.Output
}

// nopLogger drops every entry
type nopLogger struct{}

// Discard returns a logger that drops everything
func Discard() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...Field)               {}
func (nopLogger) Info(string, ...Field)                {}
func (nopLogger) Warn(string, ...Field)                {}
func (nopLogger) Error(string, ...Field)               {}
func (n nopLogger) With(...Field) Logger               { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
func (nopLogger) Level() Level                         { return LevelError + 1 }

// holder lets atomic.Pointer carry an interface value
type holder struct{ Logger }

var defaultLogger atomic.Pointer[holder]

// SetDefault replaces the logger used when a context carries none. Safe to
// call while the scheduler and HTTP server are logging.
func SetDefault(l Logger) {
	defaultLogger.Store(&holder{l})
}

// Default returns the process-wide logger, a text slog logger at info
// until SetDefault is called
func Default() Logger {
	if h := defaultLogger.Load(); h != nil {
		return h.Logger
	}
	l := NewSlogLogger(Config{Level: LevelInfo, Format: "text"})
	defaultLogger.CompareAndSwap(nil, &holder{l})
	return defaultLogger.Load().Logger
}
