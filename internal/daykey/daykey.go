// Package daykey resolves timestamps into logical hydration days.
//
// A logical day starts at a user-configured rollover hour instead of
// midnight. All arithmetic works on wall-clock date components so that a
// local clock shift (DST) never skips or duplicates a day.
package daykey

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical YYYY-MM-DD representation of a Key.
const Layout = "2006-01-02"

// MaxRolloverHour is the largest accepted rollover hour.
const MaxRolloverHour = 23

var (
	// ErrInvalidKey indicates a string that is not a YYYY-MM-DD day.
	ErrInvalidKey = errors.New("invalid day key")
	// ErrInvalidRolloverHour indicates an hour outside [0,23].
	ErrInvalidRolloverHour = errors.New("rollover hour must be between 0 and 23")
)

// Key identifies a logical day, formatted as YYYY-MM-DD.
type Key string

// Resolve returns the logical day that t belongs to. Before rolloverHour
// the timestamp still belongs to the previous calendar day.
func Resolve(t time.Time, rolloverHour int) Key {
	y, m, d := t.Date()
	if t.Hour() < rolloverHour {
		return FromDate(y, m, d-1)
	}
	return FromDate(y, m, d)
}

// FromDate builds a Key from calendar components, normalizing overflow
// (day 0 is the last day of the previous month).
func FromDate(year int, month time.Month, day int) Key {
	// Noon UTC keeps normalization away from any zone transition.
	t := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return Key(t.Format(Layout))
}

// Parse validates s and returns it as a Key.
func Parse(s string) (Key, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key(t.Format(Layout)), nil
}

// ValidateRolloverHour reports whether hour is a usable rollover hour.
func ValidateRolloverHour(hour int) error {
	if hour < 0 || hour > MaxRolloverHour {
		return fmt.Errorf("%w: got %d", ErrInvalidRolloverHour, hour)
	}
	return nil
}

// String returns the key text.
func (k Key) String() string { return string(k) }

// Date returns the key as midnight UTC of its calendar date.
// The zero Key maps to the zero time.
func (k Key) Date() time.Time {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays shifts the key by n calendar days.
func (k Key) AddDays(n int) Key {
	y, m, d := k.Date().Date()
	return FromDate(y, m, d+n)
}

// Prev is the day before k.
func (k Key) Prev() Key { return k.AddDays(-1) }

// Next is the day after k.
func (k Key) Next() Key { return k.AddDays(1) }

// Before reports whether k is an earlier day than other.
func (k Key) Before(other Key) bool { return k < other }

// After reports whether k is a later day than other.
func (k Key) After(other Key) bool { return k > other }

// Weekday returns the day of the week of k.
func (k Key) Weekday() time.Weekday { return k.Date().Weekday() }

// DaysBetween returns the number of calendar days from a to b
// (negative when b is before a).
func DaysBetween(a, b Key) int {
	return int(b.Date().Sub(a.Date()).Hours() / 24)
}

// Range returns every key from..to inclusive. Empty when to is before from.
func Range(from, to Key) []Key {
	if to.Before(from) {
		return nil
	}
	keys := make([]Key, 0, DaysBetween(from, to)+1)
	for k := from; !k.After(to); k = k.Next() {
		keys = append(keys, k)
	}
	return keys
}

// FormatHour renders a rollover hour the way the settings screen shows it.
func FormatHour(hour int) string {
	switch {
	case hour == 0:
		return "12:00 AM"
	case hour == 12:
		return "12:00 PM"
	case hour < 12:
		return fmt.Sprintf("%d:00 AM", hour)
	default:
		return fmt.Sprintf("%d:00 PM", hour-12)
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// HourSource supplies the rollover hour currently in force.
type HourSource interface {
	RolloverHour(ctx context.Context) (int, error)
}

// Resolver computes the current Key from a clock and an hour source.
type Resolver struct {
	Clock Clock
	Hours HourSource
}

// NewResolver creates a resolver. A nil clock uses SystemClock.
func NewResolver(clock Clock, hours HourSource) *Resolver {
	if clock == nil {
		clock = SystemClock
	}
	return &Resolver{Clock: clock, Hours: hours}
}

// Now returns the resolver's current time.
func (r *Resolver) Now() time.Time { return r.Clock.Now() }

// Current returns the logical day for now under the current rollover hour.
func (r *Resolver) Current(ctx context.Context) (Key, error) {
	hour, err := r.Hours.RolloverHour(ctx)
	if err != nil {
		return "", err
	}
	return Resolve(r.Clock.Now(), hour), nil
}

// At reads the clock once and returns the instant with its logical day.
func (r *Resolver) At(ctx context.Context) (time.Time, Key, error) {
	hour, err := r.Hours.RolloverHour(ctx)
	if err != nil {
		return time.Time{}, "", err
	}
	now := r.Clock.Now()
	return now, Resolve(now, hour), nil
}
