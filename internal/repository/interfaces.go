package repository

import (
	"context"
	"errors"
	"iter"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// AppendStatus reports what Append did with an event
type AppendStatus string

const (
	AppendApplied   AppendStatus = "applied"
	AppendDuplicate AppendStatus = "duplicate"
)

// AppendResult is the outcome of a journal append
type AppendResult struct {
	Status AppendStatus
	// Event is the stored event; for duplicates it is the original
	Event models.IntakeEvent
	// Entry is the ledger entry of the event's day after the append
	Entry models.LedgerEntry
}

// JournalRepository is the append-only intake event log. Append applies
// the event's delta to the ledger in the same transaction.
type JournalRepository interface {
	Append(ctx context.Context, event *models.IntakeEvent, goalML int) (*AppendResult, error)
	GetByID(ctx context.Context, id string) (*models.IntakeEvent, error)
	// Query yields events with from <= day_key <= to ordered by occurrence.
	// Each range over the sequence re-runs the scan.
	Query(ctx context.Context, from, to daykey.Key) iter.Seq2[models.IntakeEvent, error]
	SumByDay(ctx context.Context) (map[daykey.Key]int, error)
}

// LedgerRepository is the day-keyed store of accumulated intake
type LedgerRepository interface {
	GetTotal(ctx context.Context, day daykey.Key) (int, error)
	GetEntry(ctx context.Context, day daykey.Key) (*models.LedgerEntry, error)
	ListRange(ctx context.Context, from, to daykey.Key) ([]models.LedgerEntry, error)
	ListAll(ctx context.Context) ([]models.LedgerEntry, error)
	// ApplyDelta adds delta to the day's total, flooring at zero, and
	// returns the resulting entry.
	ApplyDelta(ctx context.Context, day daykey.Key, delta, goalML int) (*models.LedgerEntry, error)
	SetTotal(ctx context.Context, day daykey.Key, total, goalML int) error
}

// SettingsRepository persists engine-level scalar state
type SettingsRepository interface {
	RolloverHour(ctx context.Context) (hour int, found bool, err error)
	SetRolloverHour(ctx context.Context, hour int) error
	LastKnownDay(ctx context.Context) (daykey.Key, error)
	SetLastKnownDay(ctx context.Context, day daykey.Key) error
	WidgetCursor(ctx context.Context) (int64, error)
	SetWidgetCursor(ctx context.Context, cursor int64) error
}

// GoalRepository stores the daily goal as a history of effective dates
type GoalRepository interface {
	GoalFor(ctx context.Context, day daykey.Key) (goalML int, found bool, err error)
	SetGoal(ctx context.Context, from daykey.Key, goalML int) error
}

// HealthLogRepository stores self-reported wellbeing logs
type HealthLogRepository interface {
	Upsert(ctx context.Context, log *models.HealthLog) error
	Get(ctx context.Context, day daykey.Key) (*models.HealthLog, error)
	ListRange(ctx context.Context, from, to daykey.Key) ([]models.HealthLog, error)
	DeleteBefore(ctx context.Context, day daykey.Key) (int64, error)
}
