package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kyawhla/hydromate/internal/apierror"
	"github.com/kyawhla/hydromate/internal/handlers"
	"github.com/kyawhla/hydromate/internal/logger"
	"github.com/kyawhla/hydromate/internal/metrics"
	"github.com/kyawhla/hydromate/internal/middleware"
	"github.com/kyawhla/hydromate/internal/repository"
	"github.com/kyawhla/hydromate/internal/scheduler"
	"github.com/kyawhla/hydromate/internal/widget"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// TriggerWatch marks contexts of syncs started by a widget queue write
const TriggerWatch = "watch"

// shutdownTimeout bounds how long in-flight requests may take after a signal
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ledger daemon",
	Long: `Start the loopback HTTP API, the scheduled widget reconciliation and
rollover checks, and the widget queue watcher.`,
	RunE: runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	version, _, err := repository.SchemaVersion(a.db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	a.log.Info("starting hydromate daemon",
		logger.String("env", cfg.Server.Env),
		logger.String("storage", cfg.Storage.Path),
		logger.Int("schema_version", int(version)),
	)

	if cfg.Ledger.VerifyOnStart {
		report, err := a.ledger.Rebuild(a.context(ctx, TriggerCLI))
		if err != nil {
			return fmt.Errorf("startup ledger verification failed: %w", err)
		}
		a.log.Info("ledger verified",
			logger.Int("days_checked", report.DaysChecked),
			logger.Int("days_repaired", len(report.Repaired)))
	}

	// Catch up on anything the widget queued while the daemon was down
	if _, err := a.reconcile.SyncFromWidget(a.context(ctx, TriggerCLI)); err != nil {
		a.log.Warn("startup widget sync failed", logger.Err(err))
	}

	sched, err := scheduler.New(a.reconcile, a.ledger, cfg.Schedule.Reconcile, cfg.Schedule.Rollover, a.log)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// Set Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("127.0.0.1", cfg.Server.Port),
		Handler:           newRouter(a),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	if cfg.Widget.Watch {
		watcher := widget.NewWatcher(cfg.Widget.QueuePath, widget.DefaultDebounce, func(ctx context.Context) {
			if _, err := a.reconcile.SyncFromWidget(a.context(ctx, TriggerWatch)); err != nil {
				logger.Ctx(ctx).Warn("widget sync after queue write failed", logger.Err(err))
			}
		}, a.log)
		// Scheduled syncs still run when the queue directory cannot be watched
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				a.log.Warn("widget queue watcher stopped", logger.Err(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newRouter(a *app) *gin.Engine {
	cfg := a.cfg
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestContext(a.log))
	router.Use(middleware.Logger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"env":    cfg.Server.Env,
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.NoRoute(func(c *gin.Context) {
		apierror.WriteProblem(c, apierror.NewNotFoundError(apierror.GetRequestID(c), "route", c.Request.URL.Path))
	})

	h := &handlers.Handlers{
		Intake:   handlers.NewIntakeHandler(a.ledger),
		Sync:     handlers.NewSyncHandler(a.reconcile),
		Stats:    handlers.NewStatsHandler(a.stats),
		Insights: handlers.NewInsightsHandler(a.insights),
		Health:   handlers.NewHealthHandler(a.health),
		Settings: handlers.NewSettingsHandler(a.settings),
	}

	// API v1 routes
	h.Register(router.Group("/api/v1"))

	return router
}
