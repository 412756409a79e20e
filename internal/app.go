// Package internal wires the medinsight application together.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"medinsight/internal/config"
	"medinsight/internal/database"
	"medinsight/internal/http"
	"medinsight/internal/jobs"
	"medinsight/internal/logging"
	"medinsight/internal/reports"
	"medinsight/internal/store"
	"medinsight/internal/timeframe"
)

// Application holds every long-lived component.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Store     *store.GormStore
	Assembler *reports.Assembler
	Ranges    *timeframe.RangeParser
	Scheduler *jobs.Scheduler
	Server    *fiber.App
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig opens the database and builds the application around it.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return NewAppWithDB(cfg, logger, dbManager), nil
}

// NewAppWithDB builds the application on an initialized database manager.
func NewAppWithDB(cfg *config.Config, logger *slog.Logger, dbManager *database.DBManager, clock ...timeframe.TimeProvider) *Application {
	var provider timeframe.TimeProvider
	if len(clock) > 0 {
		provider = clock[0]
	}

	s := store.NewGormStore(dbManager.GetConnection(), logger, store.Options{
		Timeout:          cfg.StoreTimeout(),
		FailureThreshold: uint32(max(cfg.BreakerFailureThreshold, 0)),
		OpenTimeout:      cfg.BreakerOpenTimeout(),
	})

	assembler := reports.NewAssembler(s, logger, reports.Settings{
		DailyQuestionCeiling: float64(cfg.DailyQuestionCeiling),
		CategoryCeiling:      float64(cfg.CategoryCeiling),
		DefaultTopK:          cfg.DefaultTopK,
	}, provider)
	ranges := timeframe.NewRangeParser(cfg.DefaultRangeDays, provider).WithMaxDays(cfg.MaxRangeDays)

	scheduler := jobs.NewScheduler(logger, cfg.DigestEnabled,
		jobs.NewDigestJob(assembler, ranges, logger, cfg.DigestCron))

	handler := http.NewHandler(assembler, ranges, dbManager, s, logger)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Store:     s,
		Assembler: assembler,
		Ranges:    ranges,
		Scheduler: scheduler,
		Server:    NewServer(cfg, logger, handler),
	}
}

// Start runs the background jobs and serves HTTP until Shutdown is called.
func (a *Application) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start jobs: %w", err)
	}

	a.Logger.Info("Starting HTTP server",
		slog.String("port", a.Config.AppPort),
		slog.String("environment", a.Config.Environment))
	return a.Server.Listen(":" + a.Config.AppPort)
}

// Shutdown stops the jobs and the server, then closes the database.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()

	var errs []error
	if err := a.Server.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
	}
	if err := a.DBManager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}
