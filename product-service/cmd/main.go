package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MiguelKingofcodes/project-ppdm/product-service/internal/command"
	"github.com/MiguelKingofcodes/project-ppdm/product-service/internal/config"
	"github.com/MiguelKingofcodes/project-ppdm/product-service/internal/handler"
	"github.com/MiguelKingofcodes/project-ppdm/product-service/internal/query"
	"github.com/MiguelKingofcodes/project-ppdm/product-service/internal/repository"
	"github.com/MiguelKingofcodes/project-ppdm/shared/events"
	"github.com/MiguelKingofcodes/project-ppdm/shared/logging"
	redisClient "github.com/MiguelKingofcodes/project-ppdm/shared/redis"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("product service stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Service: "product-service",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection (write store)
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		return err
	}

	// Redis connection (list cache + event streaming)
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
	writeRepo := repository.NewProductWriteRepository(pool)
	readRepo := repository.NewProductReadRepository(pool, redis.Client, cfg.ListCacheTTL)

	commandSvc := command.NewProductCommandService(writeRepo, readRepo, publisher)
	querySvc := query.NewProductQueryService(readRepo)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := handler.NewRouter(handler.NewProductHandler(commandSvc, querySvc), logger, cfg.TrustedProxies)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("product service starting", "port", cfg.Port)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
