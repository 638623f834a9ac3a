package models

import (
	"time"

	"github.com/kyawhla/hydromate/internal/daykey"
)

// Source identifies which writer recorded an intake event
type Source string

const (
	SourceApp    Source = "app"
	SourceWidget Source = "widget"
)

// EventKind distinguishes ordinary intake from user corrections
type EventKind string

const (
	EventKindAdd    EventKind = "add"
	EventKindRemove EventKind = "remove"
	EventKindReset  EventKind = "reset"
)

// IntakeEvent is a single journaled change to a day's ledger total.
// AmountMilliliters is the delta actually applied to the ledger, which for
// removals can be smaller than RequestedMilliliters because totals are
// floored at zero.
type IntakeEvent struct {
	ID                   string     `json:"id"`
	AmountMilliliters    int        `json:"amount_ml"`
	RequestedMilliliters int        `json:"requested_ml"`
	OccurredAt           time.Time  `json:"occurred_at"`
	Source               Source     `json:"source"`
	Kind                 EventKind  `json:"kind"`
	DayKey               daykey.Key `json:"day_key"`
	WidgetLocalID        *int64     `json:"widget_local_id,omitempty"`
	RecordedAt           time.Time  `json:"recorded_at"`
}

// LedgerEntry is the accumulated intake for one logical day, together with
// the goal that was in force when the day was last written.
type LedgerEntry struct {
	DayKey           daykey.Key `json:"day_key"`
	TotalMilliliters int        `json:"total_ml"`
	GoalMilliliters  int        `json:"goal_ml"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DailyHistoryRecord is the per-day projection used by statistics
type DailyHistoryRecord struct {
	Date   daykey.Key `json:"date"`
	Intake int        `json:"intake"`
	Goal   int        `json:"goal"`
	Closed bool       `json:"closed"`
}

// GoalMet reports whether the day's intake reached its goal
func (r DailyHistoryRecord) GoalMet() bool {
	return r.Goal > 0 && r.Intake >= r.Goal
}

// HydrationPercent is intake relative to goal, in percent
func (r DailyHistoryRecord) HydrationPercent() float64 {
	if r.Goal <= 0 {
		return 0
	}
	return float64(r.Intake) / float64(r.Goal) * 100
}

// ToHistoryRecord projects a ledger entry onto a history record. Days
// before today are closed.
func (e LedgerEntry) ToHistoryRecord(today daykey.Key) DailyHistoryRecord {
	return DailyHistoryRecord{
		Date:   e.DayKey,
		Intake: e.TotalMilliliters,
		Goal:   e.GoalMilliliters,
		Closed: e.DayKey.Before(today),
	}
}

// DayRecord is a day's history record plus its journaled events
type DayRecord struct {
	DailyHistoryRecord
	Events []IntakeEvent `json:"events"`
}

// IntakeResult is returned by add/remove/reset operations
type IntakeResult struct {
	DayKey           daykey.Key `json:"day_key"`
	TotalMilliliters int        `json:"total_ml"`
	GoalMilliliters  int        `json:"goal_ml"`
	EventID          string     `json:"event_id"`
	Duplicate        bool       `json:"duplicate"`
}

// AddIntakeRequest is the body of POST /api/v1/intake
type AddIntakeRequest struct {
	ID                string `json:"id"`
	AmountMilliliters int    `json:"amount_ml" binding:"required"`
}

// RemoveIntakeRequest is the body of POST /api/v1/intake/remove
type RemoveIntakeRequest struct {
	AmountMilliliters int `json:"amount_ml" binding:"required"`
}

// RolloverSettings describes the configured day boundary
type RolloverSettings struct {
	RolloverHour int    `json:"rollover_hour"`
	Label        string `json:"label"`
}

// UpdateRolloverRequest is the body of PUT /api/v1/settings/rollover
type UpdateRolloverRequest struct {
	RolloverHour *int `json:"rollover_hour" binding:"required"`
}

// UpdateGoalRequest is the body of PUT /api/v1/settings/goal
type UpdateGoalRequest struct {
	GoalMilliliters int `json:"goal_ml" binding:"required"`
}

// RebuildReport summarizes a ledger re-derivation from the journal
type RebuildReport struct {
	DaysChecked int         `json:"days_checked"`
	Repaired    []DayRepair `json:"repaired,omitempty"`
}

// DayRepair records a ledger total corrected from the journal
type DayRepair struct {
	DayKey daykey.Key `json:"day_key"`
	Before int        `json:"before_ml"`
	After  int        `json:"after_ml"`
}
