package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/metrics"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/repository"
	"golang.org/x/sync/singleflight"
)

// Layouts the widget writes its date and time fields in
const (
	widgetDateLayout = "2006-01-02"
	widgetTimeLayout = "15:04"
	widgetSecLayout  = "15:04:05"
)

type reconcileService struct {
	ledger   LedgerService
	queue    WidgetQueue
	settings repository.SettingsRepository
	hours    daykey.HourSource
	location *time.Location
	group    singleflight.Group
}

// NewReconcileService creates a new widget reconciliation service. Widget
// date and time fields are interpreted in loc; nil means time.Local.
func NewReconcileService(
	ledger LedgerService,
	queue WidgetQueue,
	settings repository.SettingsRepository,
	hours daykey.HourSource,
	loc *time.Location,
) ReconcileService {
	if loc == nil {
		loc = time.Local
	}
	return &reconcileService{
		ledger:   ledger,
		queue:    queue,
		settings: settings,
		hours:    hours,
		location: loc,
	}
}

// SyncFromWidget drains the widget queue. Concurrent callers share one pass.
func (s *reconcileService) SyncFromWidget(ctx context.Context) (*models.SyncResult, error) {
	v, err, _ := s.group.Do("sync", func() (any, error) {
		start := time.Now()
		result, err := s.drain(ctx)
		metrics.ObserveReconcile(err, time.Since(start))
		return result, err
	})
	if err != nil {
		return nil, err
	}
	result := *v.(*models.SyncResult)
	return &result, nil
}

func (s *reconcileService) drain(ctx context.Context) (*models.SyncResult, error) {
	log := logger.Ctx(ctx)

	entries, err := s.queue.ReadPending(ctx)
	if err != nil {
		log.Error("failed to read widget queue", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrWidgetQueue, err)
	}

	cursor, err := s.settings.WidgetCursor(ctx)
	if err != nil {
		return nil, storageErr("read widget cursor", err)
	}

	result := &models.SyncResult{AppliedEntries: []models.WidgetEntry{}, Cursor: cursor}
	if len(entries) == 0 {
		return result, nil
	}

	hour, err := s.hours.RolloverHour(ctx)
	if err != nil {
		return nil, err
	}

	ordered := make([]models.WidgetEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.LocalID == 0 {
			result.FailedCount++
			log.Warn("skipping widget entry without local id", logger.String("reason", entry.Problem))
			continue
		}
		ordered = append(ordered, entry)
	}
	slices.SortStableFunc(ordered, func(a, b models.WidgetEntry) int {
		return cmp.Compare(a.LocalID, b.LocalID)
	})

	// The cursor only moves over a contiguous run of handled entries. Once
	// an entry fails it stays pending and later entries are applied but
	// re-read, and deduped, on the next pass.
	next := cursor
	blocked := false
	var appendErr error

	for _, entry := range ordered {
		if entry.LocalID <= cursor {
			continue
		}
		if err := ctx.Err(); err != nil {
			appendErr = err
			break
		}

		at, problem := s.entryTime(entry)
		if entry.Problem != "" {
			problem = entry.Problem
		} else if entry.AmountMilliliters <= 0 {
			problem = "amount must be positive"
		}
		if problem != "" {
			result.FailedCount++
			blocked = true
			log.Warn("skipping malformed widget entry",
				logger.LocalID(entry.LocalID),
				logger.String("reason", problem))
			continue
		}

		localID := entry.LocalID
		event := &models.IntakeEvent{
			ID:                   WidgetEventID(localID),
			RequestedMilliliters: entry.AmountMilliliters,
			OccurredAt:           at,
			Source:               models.SourceWidget,
			Kind:                 models.EventKindAdd,
			DayKey:               daykey.Resolve(at, hour),
			WidgetLocalID:        &localID,
			RecordedAt:           time.Now(),
		}

		res, err := s.ledger.Record(ctx, event)
		if err != nil {
			appendErr = err
			break
		}

		if res.Status == repository.AppendDuplicate {
			result.DuplicateCount++
		} else {
			result.SyncedCount++
			result.TotalAmountMilliliters += res.Event.AmountMilliliters
			result.AppliedEntries = append(result.AppliedEntries, entry)
		}
		if !blocked {
			next = localID
		}
	}

	// Progress is persisted even if the pass stopped early
	persistCtx := context.WithoutCancel(ctx)

	if next > cursor {
		if err := s.settings.SetWidgetCursor(persistCtx, next); err != nil {
			log.Error("failed to persist widget cursor", logger.Int64("cursor", next), logger.Err(err))
			return nil, storageErr("write widget cursor", err)
		}
	}
	result.Cursor = next

	// Only after the cursor is durable may the widget drop entries
	if hasEntryUpTo(ordered, next) {
		if err := s.queue.TruncateUpTo(persistCtx, next); err != nil {
			log.Warn("failed to truncate widget queue", logger.Int64("cursor", next), logger.Err(err))
		}
	}

	metrics.RecordReconcileEntries(result.SyncedCount, result.DuplicateCount, result.FailedCount)

	if result.SyncedCount > 0 {
		s.ledger.PushDisplay(persistCtx)
	}

	if appendErr != nil {
		log.Error("widget sync stopped early",
			logger.Int("synced", result.SyncedCount),
			logger.Int64("cursor", next),
			logger.Err(appendErr))
		return nil, appendErr
	}

	log.Info("widget sync complete",
		logger.Int("synced", result.SyncedCount),
		logger.Int("total_ml", result.TotalAmountMilliliters),
		logger.Int("duplicates", result.DuplicateCount),
		logger.Int("failed", result.FailedCount),
		logger.Int64("cursor", next))
	return result, nil
}

// entryTime builds the wall-clock instant of a widget entry. The millisecond
// timestamp refines it only when it agrees with date and time to the minute.
func (s *reconcileService) entryTime(entry models.WidgetEntry) (time.Time, string) {
	if entry.Date == "" || entry.Time == "" {
		return time.Time{}, "missing date or time"
	}

	layout := widgetDateLayout + " " + widgetTimeLayout
	if len(entry.Time) == len(widgetSecLayout) {
		layout = widgetDateLayout + " " + widgetSecLayout
	}
	at, err := time.ParseInLocation(layout, entry.Date+" "+entry.Time, s.location)
	if err != nil {
		return time.Time{}, fmt.Sprintf("invalid date or time %q %q", entry.Date, entry.Time)
	}

	if entry.Timestamp > 0 {
		precise := time.UnixMilli(entry.Timestamp).In(s.location)
		if precise.Truncate(time.Minute).Equal(at.Truncate(time.Minute)) {
			at = precise
		}
	}
	return at, ""
}

func hasEntryUpTo(entries []models.WidgetEntry, cursor int64) bool {
	return len(entries) > 0 && entries[0].LocalID <= cursor
}
