package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/kyawhla/hydromate/internal/config"
	"github.com/kyawhla/hydromate/internal/daykey"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/repository"
	"github.com/kyawhla/hydromate/internal/service"
	"github.com/kyawhla/hydromate/internal/widget"
)

// TriggerCLI marks contexts of one-shot commands
const TriggerCLI = "cli"

// app holds the services shared by every command
type app struct {
	cfg *config.Config
	log logger.Logger
	db  *sqlx.DB

	queue     *widget.FileQueue
	ledger    service.LedgerService
	reconcile service.ReconcileService
	settings  service.SettingsService
	stats     service.StatsService
	insights  service.InsightsService
	health    service.HealthService
}

// newApp loads configuration, opens the database and wires the services
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return newAppWithConfig(cfg)
}

func newAppWithConfig(cfg *config.Config) (*app, error) {
	log := logger.New(cfg.LoggerConfig())
	logger.SetDefault(log)

	db, err := repository.Open(repository.FileDSN(cfg.Storage.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	// Initialize repositories
	journalRepo := repository.NewJournalRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	healthRepo := repository.NewHealthLogRepository(db)

	// Initialize services
	rollover := service.NewRolloverConfig(settingsRepo, cfg.Ledger.DefaultRolloverHour)
	goals := service.NewGoalProvider(goalRepo, cfg.Ledger.DefaultGoalML)
	resolver := daykey.NewResolver(nil, rollover)
	queue := widget.NewFileQueue(cfg.Widget.QueuePath)
	display := widget.NewFileDisplay(cfg.Widget.DisplayPath)

	ledger := service.NewLedgerService(journalRepo, ledgerRepo, settingsRepo, resolver, goals, display)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		queue:     queue,
		ledger:    ledger,
		reconcile: service.NewReconcileService(ledger, queue, settingsRepo, rollover, nil),
		settings:  service.NewSettingsService(rollover, goals, ledger),
		stats:     service.NewStatsService(ledger),
		insights:  service.NewInsightsService(ledger, healthRepo),
		health:    service.NewHealthService(healthRepo, ledger),
	}, nil
}

// context returns a root context for trigger carrying the app logger
func (a *app) context(parent context.Context, trigger string) context.Context {
	ctx := logger.WithLogger(parent, a.log)
	ctx = logger.WithRequestID(ctx, "")
	return logger.WithTrigger(ctx, trigger)
}

func (a *app) Close() error {
	return a.db.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
