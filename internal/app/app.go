package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalsetter/internal/config"
	"github.com/templui/goalsetter/internal/db"
	"github.com/templui/goalsetter/internal/metrics"
	"github.com/templui/goalsetter/internal/middleware"
	"github.com/templui/goalsetter/internal/repository"
	"github.com/templui/goalsetter/internal/service"
	"github.com/templui/goalsetter/internal/storage"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	Metrics       *metrics.Collector
	RateLimiter   *middleware.RateLimiter
	AuthService   *service.AuthService
	GoalService   *service.GoalService
	ExportService *service.ExportService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	exportStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector("goals")
	}

	// Repositories
	goalRepository := repository.NewGoalRepository(database)

	// Services
	goalService := service.NewGoalService(goalRepository, collector)
	exportService := service.NewExportService(goalService, exportStorage)
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTIssuer)

	return &App{
		Cfg:           cfg,
		DB:            database,
		Metrics:       collector,
		RateLimiter:   middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		AuthService:   authService,
		GoalService:   goalService,
		ExportService: exportService,
	}, nil
}

func (a *App) Close() error {
	if a.RateLimiter != nil {
		a.RateLimiter.Stop()
	}
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
