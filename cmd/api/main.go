package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront/internal/api/http"
	"github.com/spec-kit/storefront/internal/api/http/handlers"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/observability"
	"github.com/spec-kit/storefront/internal/persistence"
	"github.com/spec-kit/storefront/internal/repository"
	"github.com/spec-kit/storefront/internal/service"
	"github.com/spec-kit/storefront/internal/worker"
	"github.com/spec-kit/storefront/migrations"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.Files, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	cartRepo := repository.NewCartRepository(pool)

	if pool != nil {
		if err := service.BootstrapAdmin(ctx, userRepo, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword, cfg.Auth.BcryptCost, logger); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}

	tokenCfg := auth.TokenConfig{Secret: []byte(cfg.Auth.JWTSecret), TTL: cfg.Auth.TokenTTL()}
	codec, err := auth.NewTokenCodec(tokenCfg)
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}
	validator, err := auth.NewTokenValidator(tokenCfg)
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	pipeline := auth.NewPipeline(auth.PipelineDependencies{
		Codec:         codec,
		Validator:     validator,
		Authenticator: auth.NewCredentialAuthenticator(userRepo, auth.BcryptVerifier{}),
		Logger:        logger,
		Metrics:       metrics,
		Events:        dispatcher,
	}, cfg.Auth.LoginPath, nil)

	cartCache := service.NewCachedCartReader(redis.Client, service.StoreReader(cartRepo), cfg.Cart.CacheTTL(), logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:    handlers.NewUsersHandler(service.NewUserService(userRepo)),
		Carts:    handlers.NewCartsHandler(service.NewCartService(cartRepo, cartCache)),
		Pipeline: pipeline,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
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
