// Package scheduler runs the periodic reconcile and rollover jobs of the
// serve command.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/service"
	"github.com/robfig/cron/v3"
)

// TriggerCron marks contexts of scheduled runs
const TriggerCron = "cron"

// Scheduler owns the cron runner and its jobs
type Scheduler struct {
	cron      *cron.Cron
	reconcile service.ReconcileService
	ledger    service.LedgerService
	log       logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New registers the reconcile and rollover jobs on their cron specs.
// Specs accept the standard five fields and descriptors such as "@every 5m".
func New(reconcile service.ReconcileService, ledger service.LedgerService, reconcileSpec, rolloverSpec string, log logger.Logger) (*Scheduler, error) {
	adapter := cronLogger{log: log}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(adapter),
			cron.SkipIfStillRunning(adapter),
		), cron.WithLogger(adapter)),
		reconcile: reconcile,
		ledger:    ledger,
		log:       log,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(reconcileSpec, s.runReconcile); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", reconcileSpec, err)
	}
	if _, err := s.cron.AddFunc(rolloverSpec, s.runRollover); err != nil {
		return nil, fmt.Errorf("invalid rollover schedule %q: %w", rolloverSpec, err)
	}
	return s, nil
}

// Start runs the jobs in the background until Stop
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) jobContext() context.Context {
	ctx := logger.WithLogger(s.ctx, s.log)
	ctx = logger.WithRequestID(ctx, "")
	return logger.WithTrigger(ctx, TriggerCron)
}

func (s *Scheduler) runReconcile() {
	ctx := s.jobContext()
	if _, err := s.reconcile.SyncFromWidget(ctx); err != nil {
		logger.Ctx(ctx).Error("scheduled widget sync failed", logger.Err(err))
	}
}

func (s *Scheduler) runRollover() {
	ctx := s.jobContext()
	if _, err := s.ledger.RolloverCheck(ctx); err != nil {
		logger.Ctx(ctx).Error("scheduled rollover check failed", logger.Err(err))
	}
}

// cronLogger adapts logger.Logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), logger.Err(err))...)
}

func fields(keysAndValues []any) []logger.Field {
	out := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		value := keysAndValues[i+1]
		if t, ok := value.(time.Time); ok {
			value = t.Format(time.RFC3339)
		}
		out = append(out, logger.Any(key, value))
	}
	return out
}
