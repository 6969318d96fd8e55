package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-analytics/internal/api/http"
	"github.com/spec-kit/complaint-analytics/internal/api/http/handlers"
	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/cache"
	"github.com/spec-kit/complaint-analytics/internal/config"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/events"
	"github.com/spec-kit/complaint-analytics/internal/llm"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/persistence"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	"github.com/spec-kit/complaint-analytics/internal/service"
	"github.com/spec-kit/complaint-analytics/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	complaintRepo, err := buildComplaintRepository(pg, cfg.Seed, logger)
	if err != nil {
		logger.Fatal("failed to load complaint snapshot", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	analyticsService := service.NewAnalyticsService(complaintRepo)
	anomalyService := service.NewAnomalyService(service.AnomalyDependencies{
		ComplaintRepo: complaintRepo,
		Config:        cfg.Anomaly,
		Logger:        logger,
		Metrics:       metrics,
	})

	insightDeps := service.InsightDependencies{
		ComplaintRepo:  complaintRepo,
		AnomalyService: anomalyService,
		Summarizer:     llm.NewSummarizer(cfg.AI),
		Logger:         logger,
		Metrics:        metrics,
	}
	if redis.Enabled() {
		insightDeps.Cache = cache.NewRedisInsightCache(redis.Client, cfg.AI.CacheTTL())
	}
	insightService := service.NewInsightService(insightDeps)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	var scanWorker *worker.ScanWorker
	if cfg.Scan.Schedule != "" {
		scanWorker = worker.NewScanWorker(anomalyService, dispatcher, logger, cfg.App.RequestTimeout())
		if err := scanWorker.Start(cfg.Scan.Schedule); err != nil {
			logger.Fatal("failed to schedule anomaly scans", zap.Error(err))
		}
	}

	var authMiddleware *auth.AuthMiddleware
	if cfg.Auth.Required {
		authMiddleware = auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Anomalies:      handlers.NewAnomaliesHandler(anomalyService),
		Insight:        handlers.NewInsightHandler(insightService),
		Metrics:        metrics,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if scanWorker != nil {
		scanWorker.Stop()
	}
	_ = app.Shutdown()
}

// buildComplaintRepository prefers Postgres, then a JSON snapshot, then an empty store.
func buildComplaintRepository(pg *persistence.Postgres, seed config.SeedConfig, logger *zap.Logger) (repository.ComplaintRepository, error) {
	if pg.Enabled() {
		return repository.NewComplaintRepository(pg.PoolHandle()), nil
	}
	if seed.Path == "" {
		logger.Warn("no database or SEED_PATH configured; serving an empty complaint set")
		return repository.NewMemoryComplaintRepository([]domain.Complaint{}), nil
	}
	records, err := repository.LoadComplaintSnapshot(seed.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded complaint snapshot", zap.String("path", seed.Path), zap.Int("records", len(records)))
	return repository.NewMemoryComplaintRepository(records), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
