package service

import (
	"errors"
	"fmt"

	"github.com/kyawhla/hydromate/internal/daykey"
)

var (
	// ErrInvalidAmount indicates a non-positive milliliter amount
	ErrInvalidAmount = errors.New("amount must be a positive number of milliliters")
	// ErrInvalidGoal indicates a non-positive daily goal
	ErrInvalidGoal = errors.New("daily goal must be a positive number of milliliters")
	// ErrInvalidLevel indicates a wellbeing level outside 1-5
	ErrInvalidLevel = errors.New("wellbeing levels must be between 1 and 5")
	// ErrInvalidMetric indicates an unknown wellbeing metric name
	ErrInvalidMetric = errors.New("unknown wellbeing metric")
	// ErrInvalidDayKey indicates a malformed YYYY-MM-DD day
	ErrInvalidDayKey = daykey.ErrInvalidKey
	// ErrInvalidRolloverHour indicates a rollover hour outside [0,23]
	ErrInvalidRolloverHour = daykey.ErrInvalidRolloverHour
	// ErrFutureDay indicates a write aimed at a logical day that has not started
	ErrFutureDay = errors.New("day has not started yet")
	// ErrStorage is matched by every StorageError
	ErrStorage = errors.New("storage unavailable")
	// ErrWidgetQueue indicates the widget queue could not be read or truncated
	ErrWidgetQueue = errors.New("widget queue unavailable")
)

// StorageError wraps a failed read or write of the local store. Nothing was
// applied; the caller may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorage) hold for any StorageError
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Retryable is always true for storage failures
func (e *StorageError) Retryable() bool { return true }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
