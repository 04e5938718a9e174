package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/conjunto-service/internal/api/http"
	"github.com/spec-kit/conjunto-service/internal/api/http/handlers"
	"github.com/spec-kit/conjunto-service/internal/auth"
	"github.com/spec-kit/conjunto-service/internal/config"
	"github.com/spec-kit/conjunto-service/internal/events"
	"github.com/spec-kit/conjunto-service/internal/observability"
	"github.com/spec-kit/conjunto-service/internal/persistence"
	"github.com/spec-kit/conjunto-service/internal/repository"
	"github.com/spec-kit/conjunto-service/internal/service"
	"github.com/spec-kit/conjunto-service/internal/tenancy"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.PublicMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	registry := tenancy.NewRegistry(pg.PoolHandle(), cfg.Postgres, cfg.Tenancy, logger)
	defer registry.CloseAll()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	conjuntoRepo := repository.NewConjuntoRepository(pool)
	tenantRepos := repository.NewTenantRepositories(registry)

	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     userRepo,
		ConjuntoRepo: conjuntoRepo,
		Tokens:       tokens,
		Limiter: service.NewRedisLoginLimiter(redis.Client,
			cfg.Auth.MaxLoginAttempts,
			time.Duration(cfg.Auth.LockoutDurationMinutes)*time.Minute),
		Dispatcher: dispatcher,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	pqrService := service.NewPQRService(service.PQRDependencies{
		Repos:             tenantRepos,
		Dispatcher:        dispatcher,
		MetricsCache:      service.NewRedisMetricsCache(redis.Client, cfg.PQR.MetricsCacheTTL),
		StrictTransitions: cfg.PQR.StrictTransitions,
	})
	assemblyService := service.NewAssemblyService(service.AssemblyDependencies{
		Repos:      tenantRepos,
		Owners:     userRepo,
		Dispatcher: dispatcher,
	})
	tenantService := service.NewTenantService(service.TenantDependencies{
		ConjuntoRepo: conjuntoRepo,
		Schemas:      registry,
		IDPrefix:     cfg.Tenancy.IDPrefix,
		Dispatcher:   dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	accessTTL := time.Duration(cfg.Auth.AccessTokenTTLMinutes) * time.Minute
	refreshTTL := time.Duration(cfg.Auth.RefreshTokenTTLDays) * 24 * time.Hour

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, cfg.App.IsProduction(), accessTTL, refreshTTL),
		PQR:            handlers.NewPQRHandler(pqrService),
		Assemblies:     handlers.NewAssemblyHandler(assemblyService),
		Conjuntos:      handlers.NewConjuntosHandler(tenantService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
