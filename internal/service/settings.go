package service

import (
	"context"

	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/models"
	"github.com/kyawhla/hydromate/internal/repository"
)

// RolloverConfig is the persisted rollover hour. Until the user sets one
// the configured default applies.
type RolloverConfig struct {
	repo        repository.SettingsRepository
	defaultHour int
}

// NewRolloverConfig creates a rollover hour source
func NewRolloverConfig(repo repository.SettingsRepository, defaultHour int) *RolloverConfig {
	return &RolloverConfig{repo: repo, defaultHour: defaultHour}
}

// RolloverHour implements daykey.HourSource
func (c *RolloverConfig) RolloverHour(ctx context.Context) (int, error) {
	hour, found, err := c.repo.RolloverHour(ctx)
	if err != nil {
		return 0, storageErr("read rollover hour", err)
	}
	if !found {
		return c.defaultHour, nil
	}
	return hour, nil
}

// SetRolloverHour changes how future timestamps resolve. Stored day keys
// are left as they are.
func (c *RolloverConfig) SetRolloverHour(ctx context.Context, hour int) error {
	if err := daykey.ValidateRolloverHour(hour); err != nil {
		return err
	}
	return storageErr("write rollover hour", c.repo.SetRolloverHour(ctx, hour))
}

// GoalProvider answers the daily goal in force on a given day
type GoalProvider struct {
	repo        repository.GoalRepository
	defaultGoal int
}

// NewGoalProvider creates a goal provider backed by goal history
func NewGoalProvider(repo repository.GoalRepository, defaultGoal int) *GoalProvider {
	return &GoalProvider{repo: repo, defaultGoal: defaultGoal}
}

// DailyGoal returns the goal for day, falling back to the default before
// any goal was set
func (p *GoalProvider) DailyGoal(ctx context.Context, day daykey.Key) (int, error) {
	goal, found, err := p.repo.GoalFor(ctx, day)
	if err != nil {
		return 0, storageErr("read daily goal", err)
	}
	if !found {
		return p.defaultGoal, nil
	}
	return goal, nil
}

// SetDailyGoal records goalML as the goal from day onward
func (p *GoalProvider) SetDailyGoal(ctx context.Context, from daykey.Key, goalML int) error {
	if goalML <= 0 {
		return ErrInvalidGoal
	}
	return storageErr("write daily goal", p.repo.SetGoal(ctx, from, goalML))
}

type settingsService struct {
	rollover *RolloverConfig
	goals    *GoalProvider
	ledger   LedgerService
}

// NewSettingsService creates a new settings service
func NewSettingsService(rollover *RolloverConfig, goals *GoalProvider, ledger LedgerService) SettingsService {
	return &settingsService{rollover: rollover, goals: goals, ledger: ledger}
}

func (s *settingsService) GetRollover(ctx context.Context) (*models.RolloverSettings, error) {
	hour, err := s.rollover.RolloverHour(ctx)
	if err != nil {
		return nil, err
	}
	return &models.RolloverSettings{RolloverHour: hour, Label: daykey.FormatHour(hour)}, nil
}

func (s *settingsService) SetRolloverHour(ctx context.Context, hour int) (*models.RolloverSettings, error) {
	if err := s.rollover.SetRolloverHour(ctx, hour); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info("rollover hour changed", logger.Int("rollover_hour", hour))

	// Moving the boundary can move the current day
	if _, err := s.ledger.RolloverCheck(ctx); err != nil {
		logger.Ctx(ctx).Warn("rollover check after hour change failed", logger.Err(err))
	}
	return &models.RolloverSettings{RolloverHour: hour, Label: daykey.FormatHour(hour)}, nil
}

func (s *settingsService) GetDailyGoal(ctx context.Context, day daykey.Key) (int, error) {
	if day == "" {
		current, err := s.ledger.CurrentDayKey(ctx)
		if err != nil {
			return 0, err
		}
		day = current
	}
	return s.goals.DailyGoal(ctx, day)
}

// SetDailyGoal applies from the current logical day so closed days keep
// the goal they were tracked against
func (s *settingsService) SetDailyGoal(ctx context.Context, goalML int) error {
	if goalML <= 0 {
		return ErrInvalidGoal
	}
	today, err := s.ledger.CurrentDayKey(ctx)
	if err != nil {
		return err
	}
	if err := s.goals.SetDailyGoal(ctx, today, goalML); err != nil {
		return err
	}
	logger.Ctx(ctx).Info("daily goal changed",
		logger.Int("goal_ml", goalML),
		logger.String("effective_from", today.String()))

	s.ledger.PushDisplay(ctx)
	return nil
}
