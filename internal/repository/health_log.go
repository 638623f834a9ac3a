package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/models"
)

type healthLogRow struct {
	Date               string         `db:"date"`
	WaterIntakeML      int            `db:"water_intake_ml"`
	WaterIntakePercent float64        `db:"water_intake_percent"`
	Mood               int            `db:"mood"`
	Energy             int            `db:"energy"`
	Skin               int            `db:"skin"`
	Notes              sql.NullString `db:"notes"`
	UpdatedAt          string         `db:"updated_at"`
}

func (r healthLogRow) toModel() (models.HealthLog, error) {
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return models.HealthLog{}, err
	}
	log := models.HealthLog{
		Date:                   daykey.Key(r.Date),
		WaterIntakeMilliliters: r.WaterIntakeML,
		WaterIntakePercent:     r.WaterIntakePercent,
		Mood:                   r.Mood,
		Energy:                 r.Energy,
		Skin:                   r.Skin,
		UpdatedAt:              updatedAt,
	}
	if r.Notes.Valid {
		notes := r.Notes.String
		log.Notes = &notes
	}
	return log, nil
}

type healthLogRepository struct {
	db *sqlx.DB
}

// NewHealthLogRepository creates a new health log repository
func NewHealthLogRepository(db *sqlx.DB) HealthLogRepository {
	return &healthLogRepository{db: db}
}

func (r *healthLogRepository) Upsert(ctx context.Context, log *models.HealthLog) error {
	if log.UpdatedAt.IsZero() {
		log.UpdatedAt = time.Now()
	}
	row := healthLogRow{
		Date:               log.Date.String(),
		WaterIntakeML:      log.WaterIntakeMilliliters,
		WaterIntakePercent: log.WaterIntakePercent,
		Mood:               log.Mood,
		Energy:             log.Energy,
		Skin:               log.Skin,
		UpdatedAt:          formatTime(log.UpdatedAt),
	}
	if log.Notes != nil {
		row.Notes = sql.NullString{String: *log.Notes, Valid: true}
	}

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO health_logs (date, water_intake_ml, water_intake_percent, mood, energy, skin, notes, updated_at)
		 VALUES (:date, :water_intake_ml, :water_intake_percent, :mood, :energy, :skin, :notes, :updated_at)
		 ON CONFLICT(date) DO UPDATE SET
		   water_intake_ml = excluded.water_intake_ml,
		   water_intake_percent = excluded.water_intake_percent,
		   mood = excluded.mood,
		   energy = excluded.energy,
		   skin = excluded.skin,
		   notes = excluded.notes,
		   updated_at = excluded.updated_at`, row)
	if err != nil {
		return fmt.Errorf("failed to upsert health log: %w", err)
	}
	return nil
}

func (r *healthLogRepository) Get(ctx context.Context, day daykey.Key) (*models.HealthLog, error) {
	var row healthLogRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM health_logs WHERE date = ?`, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get health log: %w", err)
	}
	log, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *healthLogRepository) ListRange(ctx context.Context, from, to daykey.Key) ([]models.HealthLog, error) {
	var rows []healthLogRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM health_logs WHERE date >= ? AND date <= ? ORDER BY date ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list health logs: %w", err)
	}

	logs := make([]models.HealthLog, 0, len(rows))
	for _, row := range rows {
		log, err := row.toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func (r *healthLogRepository) DeleteBefore(ctx context.Context, day daykey.Key) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM health_logs WHERE date < ?`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to prune health logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned health logs: %w", err)
	}
	return n, nil
}
