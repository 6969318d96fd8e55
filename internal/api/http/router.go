package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/complaint-analytics/internal/api/http/handlers"
	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Analytics *handlers.AnalyticsHandler
	Anomalies *handlers.AnomaliesHandler
	Insight   *handlers.InsightHandler
	Metrics   *observability.Metrics
	// AuthMiddleware guards /analytics when set.
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	var guards []fiber.Handler
	if cfg.AuthMiddleware != nil {
		guards = append(guards, cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAnalyst, domain.RoleAdmin))
	}
	analytics := app.Group("/analytics", guards...)

	analytics.Get("/overview", cfg.Analytics.Overview)
	analytics.Get("/trends/:granularity", cfg.Analytics.Trend)
	analytics.Get("/peak-hours", cfg.Analytics.PeakHours)
	analytics.Get("/top-users", cfg.Analytics.TopUsers)

	anomalies := analytics.Group("/anomalies")
	anomalies.Get("", cfg.Anomalies.All)
	anomalies.Get("/high-volume-users", cfg.Anomalies.HighVolumeUsers)
	anomalies.Get("/daily-spike", cfg.Anomalies.DailySpike)
	anomalies.Get("/duplicates", cfg.Anomalies.Duplicates)
	anomalies.Get("/slow-resolution", cfg.Anomalies.SlowResolution)
	anomalies.Get("/sla-violations", cfg.Anomalies.SLAViolations)

	ai := analytics.Group("/ai")
	ai.Post("/insight", cfg.Insight.Insight)
	ai.Get("/anomaly-summary", cfg.Insight.AnomalySummary)
}
