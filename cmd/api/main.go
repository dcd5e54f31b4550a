package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/blog-auth/internal/api/http"
	"github.com/spec-kit/blog-auth/internal/api/http/handlers"
	"github.com/spec-kit/blog-auth/internal/auth"
	"github.com/spec-kit/blog-auth/internal/config"
	"github.com/spec-kit/blog-auth/internal/events"
	"github.com/spec-kit/blog-auth/internal/identity"
	"github.com/spec-kit/blog-auth/internal/observability"
	"github.com/spec-kit/blog-auth/internal/persistence"
	"github.com/spec-kit/blog-auth/internal/repository"
	"github.com/spec-kit/blog-auth/internal/revocation"
	"github.com/spec-kit/blog-auth/internal/service"
	"github.com/spec-kit/blog-auth/internal/worker"
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

	accountRepo := repository.NewAccountRepository(pg.PoolHandle())
	provider := identity.NewProvider(accountRepo)

	signer, err := auth.NewSigner(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("failed to build signer", zap.Error(err))
	}
	issuer := auth.NewIssuer(signer, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())

	var revocations revocation.Store
	switch cfg.Auth.RevocationBackend {
	case config.RevocationBackendRedis:
		revocations = revocation.NewRedisStore(redis.Client)
		logger.Info("using redis revocation store")
	default:
		memStore := revocation.NewMemoryStore()
		worker.StartRevocationSweeper(ctx, memStore, cfg.Auth.RevocationSweepInterval(), logger)
		revocations = memStore
		logger.Info("using in-memory revocation store")
	}

	verifier := auth.NewVerifier(signer, issuer, revocations, cfg.Auth.SessionCeiling())
	guard := auth.NewGuard(verifier, provider)
	authMiddleware := auth.NewMiddleware(verifier, guard)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Accounts:    accountRepo,
		Provider:    provider,
		Issuer:      issuer,
		Verifier:    verifier,
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(provider, accountRepo),
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
