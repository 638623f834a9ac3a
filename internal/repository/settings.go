package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kyawhla/hydromate/internal/daykey"
)

const (
	settingRolloverHour = "rollover_hour"
	settingLastKnownDay = "last_known_day"
	settingWidgetCursor = "widget_cursor"
)

type settingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) RolloverHour(ctx context.Context) (int, bool, error) {
	value, found, err := r.get(ctx, settingRolloverHour)
	if err != nil || !found {
		return 0, false, err
	}
	hour, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("invalid stored rollover hour %q: %w", value, err)
	}
	return hour, true, nil
}

func (r *settingsRepository) SetRolloverHour(ctx context.Context, hour int) error {
	return r.set(ctx, settingRolloverHour, strconv.Itoa(hour))
}

// LastKnownDay returns the empty key when no day has been recorded yet
func (r *settingsRepository) LastKnownDay(ctx context.Context) (daykey.Key, error) {
	value, _, err := r.get(ctx, settingLastKnownDay)
	if err != nil {
		return "", err
	}
	return daykey.Key(value), nil
}

func (r *settingsRepository) SetLastKnownDay(ctx context.Context, day daykey.Key) error {
	return r.set(ctx, settingLastKnownDay, day.String())
}

// WidgetCursor returns 0 before the first reconciliation
func (r *settingsRepository) WidgetCursor(ctx context.Context) (int64, error) {
	value, found, err := r.get(ctx, settingWidgetCursor)
	if err != nil || !found {
		return 0, err
	}
	cursor, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored widget cursor %q: %w", value, err)
	}
	return cursor, nil
}

func (r *settingsRepository) SetWidgetCursor(ctx context.Context, cursor int64) error {
	return r.set(ctx, settingWidgetCursor, strconv.FormatInt(cursor, 10))
}

func (r *settingsRepository) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *settingsRepository) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

type goalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository creates a new goal history repository
func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// GoalFor returns the goal whose effective date is the latest one not after day
func (r *goalRepository) GoalFor(ctx context.Context, day daykey.Key) (int, bool, error) {
	var goal int
	err := r.db.GetContext(ctx, &goal,
		`SELECT goal_ml FROM goal_history WHERE effective_from <= ?
		 ORDER BY effective_from DESC LIMIT 1`, day)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read goal history: %w", err)
	}
	return goal, true, nil
}

func (r *goalRepository) SetGoal(ctx context.Context, from daykey.Key, goalML int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goal_history (effective_from, goal_ml, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(effective_from) DO UPDATE SET goal_ml = excluded.goal_ml, created_at = excluded.created_at`,
		from, goalML, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to write goal history: %w", err)
	}
	return nil
}
