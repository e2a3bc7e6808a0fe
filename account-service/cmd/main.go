package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"github.com/MiguelKingofcodes/project-ppdm/account-service/internal/command"
	"github.com/MiguelKingofcodes/project-ppdm/account-service/internal/config"
	"github.com/MiguelKingofcodes/project-ppdm/account-service/internal/handler"
	"github.com/MiguelKingofcodes/project-ppdm/account-service/internal/query"
	"github.com/MiguelKingofcodes/project-ppdm/account-service/internal/repository"
	"github.com/MiguelKingofcodes/project-ppdm/shared/events"
	"github.com/MiguelKingofcodes/project-ppdm/shared/logging"
	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
	redisClient "github.com/MiguelKingofcodes/project-ppdm/shared/redis"
	"github.com/MiguelKingofcodes/project-ppdm/shared/utils"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("account service stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Service: "account-service",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	// Redis connection (read model cache, recovery grants, event streaming)
	redis, err := redisClient.NewClient(redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return err
	}
	defer redis.Close()

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client)
	hasher := utils.NewBcryptHasher(cfg.BcryptCost)

	writeRepo := repository.NewUserWriteRepository(db)
	readRepo := repository.NewUserReadRepository(db, redis.Client)
	grants := repository.NewRecoveryRepository(redis.Client, cfg.RecoveryTokenTTL)

	commandSvc := command.NewAccountCommandService(writeRepo, readRepo, grants, hasher, publisher, command.Options{
		RequireRecoveryToken: cfg.RequireRecoveryToken,
	})
	querySvc, err := query.NewAccountQueryService(readRepo, grants, hasher, query.TokenConfig{
		Secret: cfg.JWTSecret,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return err
	}

	accountHandler := handler.NewAccountHandler(commandSvc, querySvc, cfg.MaxUploadBytes)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := handler.NewRouter(accountHandler, handler.RouterConfig{
		Logger:         logger,
		JWTSecret:      cfg.JWTSecret,
		StrictLimit:    middleware.RateLimitByIP(middleware.RateLimitFromEnv("STRICT", middleware.StrictLimit)),
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	// Security audit consumer
	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "account-security-audit",
			Consumer: "account-audit-1",
			Stream:   events.UserEventsStream,
			Handler:  commandSvc.HandleUserEvent,
			Logger:   logger,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber stopped", "err", err)
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("account service starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
