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

type ledgerEntryRow struct {
	DayKey    string `db:"day_key"`
	TotalML   int    `db:"total_ml"`
	GoalML    int    `db:"goal_ml"`
	UpdatedAt string `db:"updated_at"`
}

func (r ledgerEntryRow) toModel() (models.LedgerEntry, error) {
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return models.LedgerEntry{
		DayKey:           daykey.Key(r.DayKey),
		TotalMilliliters: r.TotalML,
		GoalMilliliters:  r.GoalML,
		UpdatedAt:        updatedAt,
	}, nil
}

type ledgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) GetTotal(ctx context.Context, day daykey.Key) (int, error) {
	entry, err := readEntry(ctx, r.db, day)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, nil
	}
	return entry.TotalMilliliters, nil
}

func (r *ledgerRepository) GetEntry(ctx context.Context, day daykey.Key) (*models.LedgerEntry, error) {
	entry, err := readEntry(ctx, r.db, day)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (r *ledgerRepository) ListRange(ctx context.Context, from, to daykey.Key) ([]models.LedgerEntry, error) {
	var rows []ledgerEntryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT day_key, total_ml, goal_ml, updated_at FROM ledger_entries
		 WHERE day_key >= ? AND day_key <= ? ORDER BY day_key ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return ledgerRowsToModels(rows)
}

func (r *ledgerRepository) ListAll(ctx context.Context) ([]models.LedgerEntry, error) {
	var rows []ledgerEntryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT day_key, total_ml, goal_ml, updated_at FROM ledger_entries ORDER BY day_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return ledgerRowsToModels(rows)
}

func (r *ledgerRepository) ApplyDelta(ctx context.Context, day daykey.Key, delta, goalML int) (*models.LedgerEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	entry, err := applyDelta(ctx, tx, day, delta, goalML)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return entry, nil
}

func (r *ledgerRepository) SetTotal(ctx context.Context, day daykey.Key, total, goalML int) error {
	if total < 0 {
		total = 0
	}
	return writeEntry(ctx, r.db, models.LedgerEntry{
		DayKey:           day,
		TotalMilliliters: total,
		GoalMilliliters:  goalML,
		UpdatedAt:        time.Now(),
	})
}

// readEntry returns nil without error when the day has no entry
func readEntry(ctx context.Context, q sqlx.QueryerContext, day daykey.Key) (*models.LedgerEntry, error) {
	var row ledgerEntryRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT day_key, total_ml, goal_ml, updated_at FROM ledger_entries WHERE day_key = ?`, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entry: %w", err)
	}
	entry, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func writeEntry(ctx context.Context, e sqlx.ExecerContext, entry models.LedgerEntry) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO ledger_entries (day_key, total_ml, goal_ml, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(day_key) DO UPDATE SET
		   total_ml = excluded.total_ml,
		   goal_ml = excluded.goal_ml,
		   updated_at = excluded.updated_at`,
		entry.DayKey, entry.TotalMilliliters, entry.GoalMilliliters, formatTime(entry.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return nil
}

// applyDelta performs the ledger read-modify-write inside the caller's transaction
func applyDelta(ctx context.Context, tx *sqlx.Tx, day daykey.Key, delta, goalML int) (*models.LedgerEntry, error) {
	current, err := readEntry(ctx, tx, day)
	if err != nil {
		return nil, err
	}
	before := 0
	if current != nil {
		before = current.TotalMilliliters
	}

	entry := models.LedgerEntry{
		DayKey:           day,
		TotalMilliliters: FloorTotal(before, delta),
		GoalMilliliters:  goalML,
		UpdatedAt:        time.Now(),
	}
	if err := writeEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FloorTotal adds delta to total without going below zero
func FloorTotal(total, delta int) int {
	if next := total + delta; next > 0 {
		return next
	}
	return 0
}

func ledgerRowsToModels(rows []ledgerEntryRow) ([]models.LedgerEntry, error) {
	entries := make([]models.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
