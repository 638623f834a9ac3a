package service

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/metrics"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/repository"
)

// MaxHistoryDays bounds GetLastNDays
const MaxHistoryDays = 3650

type ledgerService struct {
	journal  repository.JournalRepository
	ledger   repository.LedgerRepository
	settings repository.SettingsRepository
	resolver *daykey.Resolver
	goals    *GoalProvider
	display  DisplayUpdater

	// writeMu serializes every journal+ledger read-modify-write
	writeMu sync.Mutex
	// checkMu guards the last-known-day marker
	checkMu sync.Mutex
}

// NewLedgerService creates a new ledger service. display may be nil when no
// widget is installed.
func NewLedgerService(
	journal repository.JournalRepository,
	ledger repository.LedgerRepository,
	settings repository.SettingsRepository,
	resolver *daykey.Resolver,
	goals *GoalProvider,
	display DisplayUpdater,
) LedgerService {
	return &ledgerService{
		journal:  journal,
		ledger:   ledger,
		settings: settings,
		resolver: resolver,
		goals:    goals,
		display:  display,
	}
}

func (s *ledgerService) AddIntake(ctx context.Context, req *models.AddIntakeRequest) (*models.IntakeResult, error) {
	if req.AmountMilliliters <= 0 {
		return nil, ErrInvalidAmount
	}

	id := req.ID
	if id != "" {
		if err := ValidateUUIDv7(id); err != nil {
			return nil, err
		}
	} else {
		generated, err := NewEventID()
		if err != nil {
			return nil, err
		}
		id = generated
	}

	return s.recordToday(ctx, id, models.EventKindAdd, req.AmountMilliliters)
}

func (s *ledgerService) RemoveIntake(ctx context.Context, amountML int) (*models.IntakeResult, error) {
	if amountML <= 0 {
		return nil, ErrInvalidAmount
	}
	id, err := NewEventID()
	if err != nil {
		return nil, err
	}
	return s.recordToday(ctx, id, models.EventKindRemove, -amountML)
}

// ResetToday zeroes the current day. The reset is journaled with the
// negated total so rebuilding from the journal reproduces it.
func (s *ledgerService) ResetToday(ctx context.Context) (*models.IntakeResult, error) {
	id, err := NewEventID()
	if err != nil {
		return nil, err
	}
	return s.recordToday(ctx, id, models.EventKindReset, 0)
}

func (s *ledgerService) recordToday(ctx context.Context, id string, kind models.EventKind, requested int) (*models.IntakeResult, error) {
	s.checkRollover(ctx)

	now, today, err := s.resolver.At(ctx)
	if err != nil {
		return nil, storageErr("resolve current day", err)
	}

	event := &models.IntakeEvent{
		ID:                   id,
		RequestedMilliliters: requested,
		OccurredAt:           now,
		Source:               models.SourceApp,
		Kind:                 kind,
		DayKey:               today,
		RecordedAt:           now,
	}

	res, err := s.Record(ctx, event)
	if err != nil {
		return nil, err
	}

	if res.Entry.DayKey == today {
		s.pushEntry(ctx, res.Entry)
	}

	return &models.IntakeResult{
		DayKey:           res.Entry.DayKey,
		TotalMilliliters: res.Entry.TotalMilliliters,
		GoalMilliliters:  res.Entry.GoalMilliliters,
		EventID:          res.Event.ID,
		Duplicate:        res.Status == repository.AppendDuplicate,
	}, nil
}

// Record is the single path into the journal for app and widget events
func (s *ledgerService) Record(ctx context.Context, event *models.IntakeEvent) (*repository.AppendResult, error) {
	goal, err := s.goals.DailyGoal(ctx, event.DayKey)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	res, err := s.journal.Append(ctx, event, goal)
	s.writeMu.Unlock()

	if err != nil {
		metrics.RecordEvent(string(event.Source), string(event.Kind), "error")
		logger.Ctx(ctx).Error("failed to append intake event",
			logger.EventID(event.ID),
			logger.Day(event.DayKey),
			logger.Err(err))
		return nil, storageErr("append intake event", err)
	}

	metrics.RecordEvent(string(event.Source), string(res.Event.Kind), string(res.Status))
	logger.Ctx(ctx).Debug("intake event recorded",
		logger.EventID(res.Event.ID),
		logger.String("status", string(res.Status)),
		logger.Day(res.Entry.DayKey),
		logger.Int("amount_ml", res.Event.AmountMilliliters),
		logger.Int("total_ml", res.Entry.TotalMilliliters))
	return res, nil
}

func (s *ledgerService) GetDailyTotal(ctx context.Context, day daykey.Key) (*models.DailyHistoryRecord, error) {
	s.checkRollover(ctx)

	today, err := s.CurrentDayKey(ctx)
	if err != nil {
		return nil, err
	}
	if day == "" {
		day = today
	}

	entry, err := s.ledger.GetEntry(ctx, day)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr("read ledger entry", err)
	}

	record, err := s.project(ctx, day, today, entry)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *ledgerService) GetDayRecord(ctx context.Context, day daykey.Key) (*models.DayRecord, error) {
	record, err := s.GetDailyTotal(ctx, day)
	if err != nil {
		return nil, err
	}

	events := make([]models.IntakeEvent, 0)
	for event, err := range s.Events(ctx, record.Date, record.Date) {
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return &models.DayRecord{DailyHistoryRecord: *record, Events: events}, nil
}

// GetLastNDays returns n records ending today, oldest first. Days without
// an entry have zero intake and the goal in force on that day.
func (s *ledgerService) GetLastNDays(ctx context.Context, n int) ([]models.DailyHistoryRecord, error) {
	if n <= 0 {
		return []models.DailyHistoryRecord{}, nil
	}
	if n > MaxHistoryDays {
		n = MaxHistoryDays
	}

	s.checkRollover(ctx)

	today, err := s.CurrentDayKey(ctx)
	if err != nil {
		return nil, err
	}
	from := today.AddDays(-(n - 1))

	entries, err := s.ledger.ListRange(ctx, from, today)
	if err != nil {
		return nil, storageErr("list ledger entries", err)
	}
	byDay := make(map[daykey.Key]*models.LedgerEntry, len(entries))
	for i := range entries {
		byDay[entries[i].DayKey] = &entries[i]
	}

	records := make([]models.DailyHistoryRecord, 0, n)
	for _, day := range daykey.Range(from, today) {
		record, err := s.project(ctx, day, today, byDay[day])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *ledgerService) History(ctx context.Context, from, to daykey.Key) ([]models.DailyHistoryRecord, error) {
	today, err := s.CurrentDayKey(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledger.ListRange(ctx, from, to)
	if err != nil {
		return nil, storageErr("list ledger entries", err)
	}

	records := make([]models.DailyHistoryRecord, 0, len(entries))
	for i := range entries {
		record, err := s.project(ctx, entries[i].DayKey, today, &entries[i])
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *ledgerService) Events(ctx context.Context, from, to daykey.Key) iter.Seq2[models.IntakeEvent, error] {
	return func(yield func(models.IntakeEvent, error) bool) {
		for event, err := range s.journal.Query(ctx, from, to) {
			if err != nil {
				yield(models.IntakeEvent{}, storageErr("query journal", err))
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
}

// project builds the history record for day. A closed day keeps the goal
// captured when it was written; the open day follows the current goal.
func (s *ledgerService) project(ctx context.Context, day, today daykey.Key, entry *models.LedgerEntry) (models.DailyHistoryRecord, error) {
	if entry != nil && day.Before(today) {
		return entry.ToHistoryRecord(today), nil
	}

	goal, err := s.goals.DailyGoal(ctx, day)
	if err != nil {
		return models.DailyHistoryRecord{}, err
	}
	record := models.DailyHistoryRecord{Date: day, Goal: goal, Closed: day.Before(today)}
	if entry != nil {
		record.Intake = entry.TotalMilliliters
	}
	return record, nil
}

func (s *ledgerService) CurrentDayKey(ctx context.Context) (daykey.Key, error) {
	day, err := s.resolver.Current(ctx)
	if err != nil {
		return "", storageErr("resolve current day", err)
	}
	return day, nil
}

// RolloverCheck compares the current day with the persisted marker. It
// never touches ledger entries; a new day only resets the widget display.
func (s *ledgerService) RolloverCheck(ctx context.Context) (bool, error) {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	today, err := s.CurrentDayKey(ctx)
	if err != nil {
		return false, err
	}

	last, err := s.settings.LastKnownDay(ctx)
	if err != nil {
		return false, storageErr("read last known day", err)
	}
	if last == today {
		return false, nil
	}

	if err := s.settings.SetLastKnownDay(ctx, today); err != nil {
		return false, storageErr("write last known day", err)
	}

	// First run only records the marker
	if last == "" {
		return false, nil
	}

	metrics.RecordRollover()
	logger.Ctx(ctx).Info("logical day rolled over",
		logger.String("from", last.String()),
		logger.String("to", today.String()))

	s.refreshDisplay(ctx, today)
	return true, nil
}

func (s *ledgerService) checkRollover(ctx context.Context) {
	if _, err := s.RolloverCheck(ctx); err != nil {
		logger.Ctx(ctx).Warn("rollover check failed", logger.Err(err))
	}
}

// Rebuild re-derives every ledger total from the journal and repairs days
// that disagree. Writes are blocked for the duration.
func (s *ledgerService) Rebuild(ctx context.Context) (*models.RebuildReport, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sums, err := s.journal.SumByDay(ctx)
	if err != nil {
		return nil, storageErr("sum journal", err)
	}
	entries, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, storageErr("list ledger entries", err)
	}

	byDay := make(map[daykey.Key]models.LedgerEntry, len(entries))
	days := make([]daykey.Key, 0, len(entries)+len(sums))
	for _, entry := range entries {
		byDay[entry.DayKey] = entry
		days = append(days, entry.DayKey)
	}
	for day := range sums {
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
	}
	slices.Sort(days)

	report := &models.RebuildReport{DaysChecked: len(days), Repaired: []models.DayRepair{}}
	for _, day := range days {
		want := repository.FloorTotal(0, sums[day])
		entry, exists := byDay[day]
		if exists && entry.TotalMilliliters == want {
			continue
		}

		goal := entry.GoalMilliliters
		if !exists {
			if goal, err = s.goals.DailyGoal(ctx, day); err != nil {
				return nil, err
			}
		}
		if err := s.ledger.SetTotal(ctx, day, want, goal); err != nil {
			return nil, storageErr("repair ledger entry", err)
		}

		repair := models.DayRepair{DayKey: day, Before: entry.TotalMilliliters, After: want}
		report.Repaired = append(report.Repaired, repair)
		logger.Ctx(ctx).Warn("ledger total repaired from journal",
			logger.Day(day),
			logger.Int("before_ml", repair.Before),
			logger.Int("after_ml", repair.After))
	}

	logger.Ctx(ctx).Info("ledger rebuild complete",
		logger.Int("days_checked", report.DaysChecked),
		logger.Int("days_repaired", len(report.Repaired)))
	return report, nil
}

func (s *ledgerService) PushDisplay(ctx context.Context) {
	today, err := s.CurrentDayKey(ctx)
	if err != nil {
		logger.Ctx(ctx).Warn("widget display not updated", logger.Err(err))
		return
	}
	s.refreshDisplay(ctx, today)
}

// refreshDisplay zeroes the counter on an empty day and shows the total
// otherwise
func (s *ledgerService) refreshDisplay(ctx context.Context, today daykey.Key) {
	if s.display == nil {
		return
	}

	record, err := s.dayRecord(ctx, today)
	if err != nil {
		logger.Ctx(ctx).Warn("widget display not updated", logger.Err(err))
		return
	}

	if record.Intake == 0 {
		if err := s.display.Reset(ctx, today); err != nil {
			metrics.RecordDisplayPushFailure()
			logger.Ctx(ctx).Warn("failed to reset widget display", logger.Err(err))
		}
		return
	}
	s.pushEntry(ctx, models.LedgerEntry{
		DayKey:           today,
		TotalMilliliters: record.Intake,
		GoalMilliliters:  record.Goal,
	})
}

// dayRecord reads day as the open day without running the rollover check
func (s *ledgerService) dayRecord(ctx context.Context, day daykey.Key) (*models.DailyHistoryRecord, error) {
	entry, err := s.ledger.GetEntry(ctx, day)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storageErr("read ledger entry", err)
	}
	record, err := s.project(ctx, day, day, entry)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// pushEntry never fails the caller
func (s *ledgerService) pushEntry(ctx context.Context, entry models.LedgerEntry) {
	if s.display == nil {
		return
	}
	err := s.display.Push(ctx, models.WidgetDisplay{
		CurrentIntake: entry.TotalMilliliters,
		DailyGoal:     entry.GoalMilliliters,
		LastSyncDate:  entry.DayKey.String(),
	})
	if err != nil {
		metrics.RecordDisplayPushFailure()
		logger.Ctx(ctx).Warn("failed to push widget display", logger.Err(err))
	}
}
