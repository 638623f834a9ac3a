package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidUUID indicates the string is not a valid UUID format
	ErrInvalidUUID = errors.New("invalid UUID format")
	// ErrNotUUIDv7 indicates the UUID is not version 7
	ErrNotUUIDv7 = errors.New("UUID must be version 7")
	// ErrFutureTimestamp indicates the UUIDv7 timestamp is too far in the future
	ErrFutureTimestamp = errors.New("UUID timestamp is too far in the future")
)

// MaxFutureSkew is how far ahead of the local clock a client-supplied
// event id may be stamped
const MaxFutureSkew = time.Minute

// widgetIDPrefix namespaces widget local ids so they never collide with
// app-generated UUIDs
const widgetIDPrefix = "widget:"

// NewEventID returns a time-ordered id for an app-originated intake event
func NewEventID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate event id: %w", err)
	}
	return id.String(), nil
}

// WidgetEventID is the journal id of the widget entry with localID. It is
// deterministic so a re-read entry dedups against its first application.
func WidgetEventID(localID int64) string {
	return widgetIDPrefix + strconv.FormatInt(localID, 10)
}

// ValidateUUIDv7 checks a client-supplied event id. Returns nil if valid,
// or ErrInvalidUUID, ErrNotUUIDv7, or ErrFutureTimestamp.
func ValidateUUIDv7(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUUID, err)
	}

	if parsed.Version() != 7 {
		return fmt.Errorf("%w: got version %d", ErrNotUUIDv7, parsed.Version())
	}

	timestamp := ExtractUUIDv7Timestamp(id)
	if timestamp.After(time.Now().Add(MaxFutureSkew)) {
		return fmt.Errorf("%w: %v is more than %v ahead",
			ErrFutureTimestamp, timestamp.Format(time.RFC3339), MaxFutureSkew)
	}

	return nil
}

// ExtractUUIDv7Timestamp extracts the embedded timestamp from a UUIDv7.
// Returns zero time if parsing fails.
func ExtractUUIDv7Timestamp(id string) time.Time {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}
	}
	sec, nsec := parsed.Time().UnixTime()
	return time.Unix(sec, nsec)
}
