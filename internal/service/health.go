package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/repository"
)

// Health log limits
const (
	MinLevel             = 1
	MaxLevel             = 5
	HealthRetentionDays  = 90
	DefaultHealthDays    = 7
	HealthTrendWindow    = 14
	HealthTrendMinLogs   = 7
	HealthTrendThreshold = 0.5
)

type healthService struct {
	repo   repository.HealthLogRepository
	ledger LedgerService
}

// NewHealthService creates a new health log service
func NewHealthService(repo repository.HealthLogRepository, ledger LedgerService) HealthService {
	return &healthService{repo: repo, ledger: ledger}
}

// LogDailyHealth upserts the log for req.Date, or for the current day when
// it is empty. The day's hydration is captured at write time.
func (s *healthService) LogDailyHealth(ctx context.Context, req *models.LogHealthRequest) (*models.HealthLog, error) {
	for _, level := range []int{req.Mood, req.Energy, req.Skin} {
		if level < MinLevel || level > MaxLevel {
			return nil, fmt.Errorf("%w: levels must be between %d and %d", ErrInvalidLevel, MinLevel, MaxLevel)
		}
	}

	today, err := s.ledger.CurrentDayKey(ctx)
	if err != nil {
		return nil, err
	}
	day := today
	if req.Date != "" {
		day, err = daykey.Parse(req.Date)
		if err != nil {
			return nil, err
		}
		if day.After(today) {
			return nil, ErrFutureDay
		}
	}

	record, err := s.ledger.GetDailyTotal(ctx, day)
	if err != nil {
		return nil, err
	}

	var existingNotes *string
	existing, err := s.repo.Get(ctx, day)
	switch {
	case err == nil:
		existingNotes = existing.Notes
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storageErr("get health log", err)
	}

	log := &models.HealthLog{
		Date:                   day,
		WaterIntakeMilliliters: record.Intake,
		WaterIntakePercent:     record.HydrationPercent(),
		Mood:                   req.Mood,
		Energy:                 req.Energy,
		Skin:                   req.Skin,
		Notes:                  req.Notes.Resolve(existingNotes),
		UpdatedAt:              time.Now(),
	}
	if err := s.repo.Upsert(ctx, log); err != nil {
		return nil, storageErr("upsert health log", err)
	}

	pruned, err := s.repo.DeleteBefore(ctx, today.AddDays(-HealthRetentionDays))
	if err != nil {
		logger.Ctx(ctx).Warn("failed to prune health logs", logger.Err(err))
	} else if pruned > 0 {
		logger.Ctx(ctx).Debug("pruned health logs", logger.Int64("count", pruned))
	}

	logger.Ctx(ctx).Info("health log recorded",
		logger.String("date", day.String()),
		logger.Int("mood", log.Mood),
		logger.Int("energy", log.Energy),
		logger.Int("skin", log.Skin))
	return log, nil
}

// GetRecentHealthLogs returns the logs of the last days, newest first
func (s *healthService) GetRecentHealthLogs(ctx context.Context, days int) ([]models.HealthLog, error) {
	if days <= 0 {
		days = DefaultHealthDays
	}
	if days > HealthRetentionDays {
		days = HealthRetentionDays
	}

	today, err := s.ledger.CurrentDayKey(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ListRange(ctx, today.AddDays(-(days - 1)), today)
	if err != nil {
		return nil, storageErr("list health logs", err)
	}
	slices.Reverse(logs)
	return logs, nil
}

func (s *healthService) GetHealthAverages(ctx context.Context, days int) (*models.HealthAverages, error) {
	if days <= 0 {
		days = DefaultHealthDays
	}
	logs, err := s.GetRecentHealthLogs(ctx, days)
	if err != nil {
		return nil, err
	}

	avg := &models.HealthAverages{Days: days, LogCount: len(logs)}
	if len(logs) == 0 {
		return avg, nil
	}
	for _, l := range logs {
		avg.AvgMood += float64(l.Mood)
		avg.AvgEnergy += float64(l.Energy)
		avg.AvgSkin += float64(l.Skin)
		avg.AvgWater += float64(l.WaterIntakeMilliliters)
	}
	n := float64(len(logs))
	avg.AvgMood /= n
	avg.AvgEnergy /= n
	avg.AvgSkin /= n
	avg.AvgWater /= n
	return avg, nil
}

// GetHealthTrend compares the newest seven logs of the trend window with
// the ones before them
func (s *healthService) GetHealthTrend(ctx context.Context, metric models.Metric) (models.HealthTrend, error) {
	if !slices.Contains(models.Metrics, metric) {
		return "", ErrInvalidMetric
	}
	logs, err := s.GetRecentHealthLogs(ctx, HealthTrendWindow)
	if err != nil {
		return "", err
	}
	return HealthTrendOf(logs, metric), nil
}

// HealthTrendOf classifies metric over logs ordered newest first
func HealthTrendOf(logs []models.HealthLog, metric models.Metric) models.HealthTrend {
	if len(logs) < HealthTrendMinLogs {
		return models.HealthTrendStable
	}
	recent := logs[:HealthTrendMinLogs]
	previous := logs[HealthTrendMinLogs:min(len(logs), 2*HealthTrendMinLogs)]
	if len(previous) == 0 {
		return models.HealthTrendStable
	}

	diff := meanOf(recent, metric) - meanOf(previous, metric)
	switch {
	case diff > HealthTrendThreshold:
		return models.HealthTrendImproving
	case diff < -HealthTrendThreshold:
		return models.HealthTrendDeclining
	default:
		return models.HealthTrendStable
	}
}

func meanOf(logs []models.HealthLog, metric models.Metric) float64 {
	var sum float64
	for _, l := range logs {
		sum += float64(l.Value(metric))
	}
	return sum / float64(len(logs))
}
