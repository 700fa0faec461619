package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/adaptive-api/internal/api"
	apiMiddleware "github.com/phrazzld/adaptive-api/internal/api/middleware"
	"github.com/phrazzld/adaptive-api/internal/config"
	"github.com/phrazzld/adaptive-api/internal/domain/adaptive"
	"github.com/phrazzld/adaptive-api/internal/platform/cache"
	"github.com/phrazzld/adaptive-api/internal/platform/postgres"
	"github.com/phrazzld/adaptive-api/internal/redact"
	"github.com/phrazzld/adaptive-api/internal/service/difficulty"
	"github.com/phrazzld/adaptive-api/internal/store"
	"github.com/phrazzld/adaptive-api/internal/task"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig(cmd)
	if err != nil {
		return err
	}

	log, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("redis_enabled", cfg.Redis.Enabled()),
		slog.Bool("async_recorder", cfg.Recorder.Async))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// application holds the shared dependencies of the running service and
// releases them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  redis.UniversalClient

	statsStore    store.UserStatsStore
	attemptStore  store.AttemptStore
	decisionStore store.DecisionStore

	queue   *task.Queue
	workers *task.Pool

	difficultyService difficulty.Service
}

// newApplication wires stores, cache, recorder and service around an open database.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}

	app := &application{
		config:        cfg,
		logger:        logger,
		db:            db,
		attemptStore:  postgres.NewPostgresAttemptStore(db, logger),
		decisionStore: postgres.NewPostgresDecisionStore(db, logger),
	}

	var statsStore store.UserStatsStore = postgres.NewPostgresUserStatsStore(db, logger)
	if cfg.Redis.Enabled() {
		client, err := cache.NewUniversalClient(ctx, cfg.Redis)
		if err != nil {
			// The cache is an optimisation; serve from postgres alone.
			logger.Warn("redis unavailable, user stats cache disabled", slog.String("error", err.Error()))
		} else {
			app.redis = client
			statsStore = cache.NewCachedUserStatsStore(statsStore, client, cfg.Redis.StatsTTL, logger)
			logger.Info("user stats cache enabled", slog.Duration("ttl", cfg.Redis.StatsTTL))
		}
	}
	app.statsStore = statsStore

	var recorder difficulty.DecisionRecorder
	if cfg.Recorder.Async {
		app.queue = task.NewQueue(cfg.Recorder.QueueSize, logger)
		app.workers = task.NewPool(app.queue, logger,
			task.WithWorkers(cfg.Recorder.WorkerCount),
			task.WithErrorHandler(func(t task.Task, err error) {
				logger.Error("decision log write failed",
					slog.String("task_id", t.ID().String()),
					slog.String("error", redact.Error(err)))
			}))
		app.workers.Start()
		recorder = task.NewQueueRecorder(app.queue, app.decisionStore, cfg.Recorder.WriteTimeout, logger)
	} else {
		recorder = difficulty.NewStoreRecorder(app.decisionStore, cfg.Recorder.WriteTimeout)
	}

	engine := adaptive.NewServiceWithParams(adaptive.NewParams(cfg.Adaptive.ToParamsConfig()))

	app.difficultyService = difficulty.NewService(
		db,
		app.statsStore,
		app.attemptStore,
		app.decisionStore,
		engine,
		recorder,
		logger,
		difficulty.WithHistoryWindow(cfg.Adaptive.HistoryWindow),
	)

	logger.Info("application initialized")
	return app, nil
}

// setupRouter creates the router with middleware and all routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	api.RegisterRoutes(r,
		api.NewDifficultyHandler(app.difficultyService, app.logger),
		// No predictor is configured, so the rules decide every request.
		api.NewHealthHandler(app.config.Server.ServiceName, app.config.Server.Version, false),
	)

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			app.logger.Error("server failed", slog.String("error", err.Error()))
			runErr = fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		if runErr == nil {
			runErr = fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	app.cleanup(shutdownCtx)
	return runErr
}

// cleanup drains pending decision logs and releases connections.
func (app *application) cleanup(ctx context.Context) {
	if app.queue != nil {
		app.queue.Close()
	}
	if app.workers != nil {
		err := app.workers.Shutdown(ctx)
		stats := app.queue.Stats()
		if err != nil {
			app.logger.Warn("decision log queue not fully drained",
				slog.Int("pending", stats.Pending),
				slog.String("error", err.Error()))
		}
		app.logger.Info("decision log recorder stopped",
			slog.Int64("accepted", stats.Accepted),
			slog.Int64("rejected", stats.Rejected))
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
