package logger

import (
	"context"

	"github.com/google/uuid"
)

type scopeKey struct{}

// scope is what a request, scheduled job or command carries for logging
type scope struct {
	requestID string
	trigger   string
	log       Logger
}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeOf(ctx)
	update(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRequestID adds a request ID to the context
// If requestID is empty, a new UUIDv7 is generated
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = uuid.Must(uuid.NewV7()).String()
	}
	return withScope(ctx, func(s *scope) { s.requestID = requestID })
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	return scopeOf(ctx).requestID
}

// WithTrigger records what started the current operation (api, cron, watch, cli)
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return withScope(ctx, func(s *scope) { s.trigger = trigger })
}

// TriggerFromContext extracts the trigger from context
func TriggerFromContext(ctx context.Context) string {
	return scopeOf(ctx).trigger
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, l Logger) context.Context {
	return withScope(ctx, func(s *scope) { s.log = l })
}

// FromContext extracts the logger from context, or returns the default logger
func FromContext(ctx context.Context) Logger {
	if l := scopeOf(ctx).log; l != nil {
		return l
	}
	return Default()
}

func extractContextFields(ctx context.Context) []Field {
	s := scopeOf(ctx)
	var fields []Field
	if s.requestID != "" {
		fields = append(fields, String("request_id", s.requestID))
	}
	if s.trigger != "" {
		fields = append(fields, String("trigger", s.trigger))
	}
	return fields
}

// Ctx returns the context's logger enriched with its request id and trigger
func Ctx(ctx context.Context) Logger {
	return FromContext(ctx).WithContext(ctx)
}
