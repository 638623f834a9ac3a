package service

import (
	"context"
	"iter"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/repository"
)

// LedgerService defines the write and read surface of the intake ledger
type LedgerService interface {
	AddIntake(ctx context.Context, req *models.AddIntakeRequest) (*models.IntakeResult, error)
	RemoveIntake(ctx context.Context, amountML int) (*models.IntakeResult, error)
	ResetToday(ctx context.Context) (*models.IntakeResult, error)
	// GetDailyTotal reports the given day, or the current day when day is empty
	GetDailyTotal(ctx context.Context, day daykey.Key) (*models.DailyHistoryRecord, error)
	GetDayRecord(ctx context.Context, day daykey.Key) (*models.DayRecord, error)
	GetLastNDays(ctx context.Context, n int) ([]models.DailyHistoryRecord, error)
	// History returns a record for every day in [from, to] that has a
	// ledger entry. An empty from means the start of history.
	History(ctx context.Context, from, to daykey.Key) ([]models.DailyHistoryRecord, error)
	// Events yields journaled events for [from, to] in occurrence order
	Events(ctx context.Context, from, to daykey.Key) iter.Seq2[models.IntakeEvent, error]
	CurrentDayKey(ctx context.Context) (daykey.Key, error)
	// RolloverCheck reports whether a new logical day began since the last check
	RolloverCheck(ctx context.Context) (bool, error)
	Rebuild(ctx context.Context) (*models.RebuildReport, error)
	// Record appends event through the journal choke point
	Record(ctx context.Context, event *models.IntakeEvent) (*repository.AppendResult, error)
	// PushDisplay sends the current day's total to the widget display
	PushDisplay(ctx context.Context)
}

// ReconcileService drains the widget queue into the ledger
type ReconcileService interface {
	SyncFromWidget(ctx context.Context) (*models.SyncResult, error)
}

// SettingsService manages the rollover hour and daily goal
type SettingsService interface {
	GetRollover(ctx context.Context) (*models.RolloverSettings, error)
	SetRolloverHour(ctx context.Context, hour int) (*models.RolloverSettings, error)
	GetDailyGoal(ctx context.Context, day daykey.Key) (int, error)
	SetDailyGoal(ctx context.Context, goalML int) error
}

// StatsService derives statistics from the ledger and journal
type StatsService interface {
	GetStats(ctx context.Context, periodDays int) (*models.Stats, error)
	GetWeeklyStats(ctx context.Context, weekOffset int) (*models.PeriodStats, error)
	GetMonthlyStats(ctx context.Context, monthOffset int) (*models.PeriodStats, error)
	GetDistribution(ctx context.Context, days int) (*models.Distribution, error)
}

// InsightsService computes hydration and wellbeing correlations
type InsightsService interface {
	GetCorrelationInsights(ctx context.Context) ([]models.CorrelationInsight, error)
}

// HealthService manages self-reported wellbeing logs
type HealthService interface {
	LogDailyHealth(ctx context.Context, req *models.LogHealthRequest) (*models.HealthLog, error)
	GetRecentHealthLogs(ctx context.Context, days int) ([]models.HealthLog, error)
	GetHealthAverages(ctx context.Context, days int) (*models.HealthAverages, error)
	GetHealthTrend(ctx context.Context, metric models.Metric) (models.HealthTrend, error)
}

// WidgetQueue is the widget process's outbox
type WidgetQueue interface {
	ReadPending(ctx context.Context) ([]models.WidgetEntry, error)
	TruncateUpTo(ctx context.Context, localID int64) error
}

// DisplayUpdater is the widget's visible counter
type DisplayUpdater interface {
	Push(ctx context.Context, display models.WidgetDisplay) error
	Reset(ctx context.Context, day daykey.Key) error
}
