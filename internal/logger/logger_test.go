package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestBackendsWriteStructuredFields(t *testing.T) {
	for _, backend := range []string{BackendSlog, BackendZap, BackendZerolog} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: LevelDebug, Format: "json", Backend: backend, Output: &buf})

			ctx := WithTrigger(WithRequestID(context.Background(), "req-123"), "cron")
			l.WithContext(ctx).Info("widget sync complete", Int("synced", 2), String("day_key", "2024-03-01"))

			out := buf.String()
			for _, want := range []string{"widget sync complete", "req-123", "cron", "2024-03-01", "synced"} {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	for _, backend := range []string{BackendSlog, BackendZap, BackendZerolog} {
		t.Run(backend, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: LevelWarn, Format: "json", Backend: backend, Output: &buf})

			l.Info("hidden")
			l.Warn("shown")

			out := buf.String()
			if strings.Contains(out, "hidden") {
				t.Errorf("info entry written at warn level: %q", out)
			}
			if !strings.Contains(out, "shown") {
				t.Errorf("warn entry missing: %q", out)
			}
			if l.Level() != LevelWarn {
				t.Errorf("Level() = %v, want warn", l.Level())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithRequestIDGeneratesID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestIDFromContext(ctx) == "" {
		t.Error("expected generated request id")
	}
}

func TestSlogRendersDurations(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(Config{Level: LevelInfo, Format: "json", Output: &buf})

	l.Info("request completed", Duration("latency", 1500*time.Microsecond))

	if !strings.Contains(buf.String(), `"latency":"1.5ms"`) {
		t.Errorf("output = %q, want readable latency", buf.String())
	}
}

func TestContextScopeIsCumulative(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(Config{Level: LevelInfo, Format: "json", Output: &buf})

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-9")
	ctx = WithTrigger(ctx, "watch")

	if FromContext(ctx) != l {
		t.Error("logger lost after adding request id and trigger")
	}
	Ctx(ctx).Warn("widget sync after queue write failed", LocalID(7), Day(dayKey("2024-03-01")))

	out := buf.String()
	for _, want := range []string{`"request_id":"req-9"`, `"trigger":"watch"`, `"local_id":7`, `"day_key":"2024-03-01"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

type dayKey string

func (k dayKey) String() string { return string(k) }

func TestDiscardAndDefault(t *testing.T) {
	d := Discard()
	d.Error("dropped")
	if d.With(String("k", "v")) != d {
		t.Error("Discard().With should stay a no-op logger")
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("expected a default logger")
	}
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })
	SetDefault(d)
	if FromContext(context.Background()) != d {
		t.Error("FromContext should fall back to the logger set with SetDefault")
	}
}
