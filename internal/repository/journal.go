package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/models"
)

const eventColumns = `id, amount_ml, requested_ml, occurred_at, occurred_unix_ms, source, kind,
	day_key, widget_local_id, recorded_at`

type eventRow struct {
	ID             string        `db:"id"`
	AmountML       int           `db:"amount_ml"`
	RequestedML    int           `db:"requested_ml"`
	OccurredAt     string        `db:"occurred_at"`
	OccurredUnixMs int64         `db:"occurred_unix_ms"`
	Source         string        `db:"source"`
	Kind           string        `db:"kind"`
	DayKey         string        `db:"day_key"`
	WidgetLocalID  sql.NullInt64 `db:"widget_local_id"`
	RecordedAt     string        `db:"recorded_at"`
}

func (r eventRow) toModel() (models.IntakeEvent, error) {
	occurredAt, err := parseTime(r.OccurredAt)
	if err != nil {
		return models.IntakeEvent{}, err
	}
	recordedAt, err := parseTime(r.RecordedAt)
	if err != nil {
		return models.IntakeEvent{}, err
	}
	event := models.IntakeEvent{
		ID:                   r.ID,
		AmountMilliliters:    r.AmountML,
		RequestedMilliliters: r.RequestedML,
		OccurredAt:           occurredAt,
		Source:               models.Source(r.Source),
		Kind:                 models.EventKind(r.Kind),
		DayKey:               daykey.Key(r.DayKey),
		RecordedAt:           recordedAt,
	}
	if r.WidgetLocalID.Valid {
		id := r.WidgetLocalID.Int64
		event.WidgetLocalID = &id
	}
	return event, nil
}

type journalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *sqlx.DB) JournalRepository {
	return &journalRepository{db: db}
}

// Append stores event and applies it to the ledger atomically. An event
// whose id is already journaled is left untouched and reported as a
// duplicate. For removals and resets the applied amount is the effective
// delta after flooring the day's total at zero.
func (r *journalRepository) Append(ctx context.Context, event *models.IntakeEvent, goalML int) (*AppendResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	existing, err := getEvent(ctx, tx, event.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		entry, err := readEntry(ctx, tx, existing.DayKey)
		if err != nil {
			return nil, err
		}
		result := &AppendResult{Status: AppendDuplicate, Event: *existing}
		if entry != nil {
			result.Entry = *entry
		} else {
			result.Entry = models.LedgerEntry{DayKey: existing.DayKey, GoalMilliliters: goalML}
		}
		return result, nil
	}

	current, err := readEntry(ctx, tx, event.DayKey)
	if err != nil {
		return nil, err
	}
	before := 0
	if current != nil {
		before = current.TotalMilliliters
	}

	if event.Kind == models.EventKindReset {
		event.RequestedMilliliters = -before
	}
	if event.Kind == "" {
		event.Kind = models.EventKindAdd
	}
	event.AmountMilliliters = FloorTotal(before, event.RequestedMilliliters) - before
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now()
	}

	var widgetLocalID sql.NullInt64
	if event.WidgetLocalID != nil {
		widgetLocalID = sql.NullInt64{Int64: *event.WidgetLocalID, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO intake_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.AmountMilliliters, event.RequestedMilliliters,
		formatTime(event.OccurredAt), event.OccurredAt.UnixMilli(),
		string(event.Source), string(event.Kind), event.DayKey,
		widgetLocalID, formatTime(event.RecordedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert intake event: %w", err)
	}

	entry, err := applyDelta(ctx, tx, event.DayKey, event.AmountMilliliters, goalML)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit journal transaction: %w", err)
	}

	return &AppendResult{Status: AppendApplied, Event: *event, Entry: *entry}, nil
}

func (r *journalRepository) GetByID(ctx context.Context, id string) (*models.IntakeEvent, error) {
	return getEvent(ctx, r.db, id)
}

func (r *journalRepository) Query(ctx context.Context, from, to daykey.Key) iter.Seq2[models.IntakeEvent, error] {
	return func(yield func(models.IntakeEvent, error) bool) {
		rows, err := r.db.QueryxContext(ctx,
			`SELECT `+eventColumns+` FROM intake_events
			 WHERE day_key >= ? AND day_key <= ?
			 ORDER BY occurred_unix_ms ASC, recorded_at ASC, id ASC`, from, to)
		if err != nil {
			yield(models.IntakeEvent{}, fmt.Errorf("failed to query intake events: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row eventRow
			if err := rows.StructScan(&row); err != nil {
				yield(models.IntakeEvent{}, fmt.Errorf("failed to scan intake event: %w", err))
				return
			}
			event, err := row.toModel()
			if !yield(event, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.IntakeEvent{}, fmt.Errorf("failed to iterate intake events: %w", err))
		}
	}
}

func (r *journalRepository) SumByDay(ctx context.Context) (map[daykey.Key]int, error) {
	var rows []struct {
		DayKey string `db:"day_key"`
		Total  int    `db:"total"`
	}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT day_key, SUM(amount_ml) AS total FROM intake_events GROUP BY day_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum intake events: %w", err)
	}

	sums := make(map[daykey.Key]int, len(rows))
	for _, row := range rows {
		sums[daykey.Key(row.DayKey)] = row.Total
	}
	return sums, nil
}

func getEvent(ctx context.Context, q sqlx.QueryerContext, id string) (*models.IntakeEvent, error) {
	var row eventRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+eventColumns+` FROM intake_events WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intake event: %w", err)
	}
	event, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &event, nil
}
