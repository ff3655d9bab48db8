package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/templui/goalsetter/internal/app"
	"github.com/templui/goalsetter/internal/db"
	"github.com/templui/goalsetter/internal/handler"
	"github.com/templui/goalsetter/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.Cfg.AppName, app.Cfg.AppVersion, func(ctx context.Context) error {
		return db.Ping(ctx, app.DB)
	})
	goal := handler.NewGoalHandler(app.GoalService)
	export := handler.NewExportHandler(app.ExportService)

	// Every /api route needs a token; the budget is per requester.
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.RequireAuth(app.AuthService),
			middleware.RateLimit(app.RateLimiter),
		)
	}

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /{$}", health.Index)
	mux.HandleFunc("GET /healthz", health.Health)
	if app.Metrics != nil {
		mux.Handle("GET /metrics", app.Metrics.Handler())
	}

	// ============================================================================
	// GOALS API (/api/*)
	// ============================================================================

	// Collection
	mux.Handle("GET /api/goals", protected(goal.List))
	mux.Handle("POST /api/goals", protected(goal.Create))
	mux.Handle("GET /api/goals/stats", protected(goal.Stats))
	mux.Handle("GET /api/goals/export", protected(export.Download))
	mux.Handle("POST /api/goals/export", protected(export.Upload))

	// Single goal
	mux.Handle("GET /api/goals/{id}", protected(goal.Get))
	mux.Handle("PUT /api/goals/{id}", protected(goal.Update))
	mux.Handle("PUT /api/goals/{id}/status", protected(goal.UpdateStatus))
	mux.Handle("DELETE /api/goals/{id}", protected(goal.Delete))

	// Milestones
	mux.Handle("POST /api/goals/{id}/milestones", protected(goal.AddMilestone))
	mux.Handle("PUT /api/goals/{id}/milestones/{milestoneId}", protected(goal.UpdateMilestone))
	mux.Handle("DELETE /api/goals/{id}/milestones/{milestoneId}", protected(goal.RemoveMilestone))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", health.NotFound)

	// Global middleware - executed in order (top to bottom)
	middlewares := []func(http.Handler) http.Handler{
		middleware.Recovery,
		middleware.RequestID,
		middleware.RequestLogging,
	}
	if app.Metrics != nil {
		middlewares = append(middlewares, middleware.Metrics(app.Metrics, mux))
	}
	middlewares = append(middlewares,
		cors.Handler(cors.Options{
			AllowedOrigins:   app.Cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.Timeout(app.Cfg.RequestTimeout),
	)

	return middleware.Chain(mux, middlewares...)
}
