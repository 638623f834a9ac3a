package logger

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// zerologLogger implements Logger using github.com/rs/zerolog
type zerologLogger struct {
	logger zerolog.Logger
	level  Level
}

// NewZerologLogger creates a new Logger backed by zerolog
func NewZerologLogger(cfg Config) Logger {
	var w io.Writer = cfg.output()
	if cfg.Format == "text" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}

	ctx := zerolog.New(w).Level(toZerologLevel(cfg.Level)).With().Timestamp()
	if cfg.AddSource {
		ctx = ctx.Caller()
	}

	return &zerologLogger{
		logger: ctx.Logger(),
		level:  cfg.Level,
	}
}

func toZerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// fieldsToPairs keeps field order, which a map would lose
func fieldsToPairs(fields []Field) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		pairs = append(pairs, f.Key, f.Value)
	}
	return pairs
}

func (l *zerologLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug().Fields(fieldsToPairs(fields)).Msg(msg)
}

func (l *zerologLogger) Info(msg string, fields ...Field) {
	l.logger.Info().Fields(fieldsToPairs(fields)).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn().Fields(fieldsToPairs(fields)).Msg(msg)
}

func (l *zerologLogger) Error(msg string, fields ...Field) {
	l.logger.Error().Fields(fieldsToPairs(fields)).Msg(msg)
}

func (l *zerologLogger) With(fields ...Field) Logger {
	return &zerologLogger{
		logger: l.logger.With().Fields(fieldsToPairs(fields)).Logger(),
		level:  l.level,
	}
}

func (l *zerologLogger) WithContext(ctx context.Context) Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

func (l *zerologLogger) Level() Level {
	return l.level
}
