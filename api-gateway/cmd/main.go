package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MiguelKingofcodes/project-ppdm/api-gateway/internal/gateway"
	"github.com/MiguelKingofcodes/project-ppdm/shared/config"
	"github.com/MiguelKingofcodes/project-ppdm/shared/logging"
	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
)

var version = "dev"

func main() {
	env := config.GetEnv("ENV", "dev")
	logger := logging.New(logging.Config{
		Service: "api-gateway",
		Version: version,
		Env:     env,
		Level:   config.GetEnv("LOG_LEVEL", "info"),
		Format:  config.GetEnv("LOG_FORMAT", "json"),
	})

	if env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	trustedProxies, err := config.GetTrustedProxies("TRUSTED_PROXIES", nil)
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	router, err := gateway.NewRouter(gateway.Config{
		AccountServiceURL: config.TrimURL(config.GetEnv("ACCOUNT_SERVICE_URL", "http://localhost:3001")),
		ProductServiceURL: config.TrimURL(config.GetEnv("PRODUCT_SERVICE_URL", "http://localhost:3002")),
		MaxBodyBytes:      config.GetEnvInt64("MAX_BODY_BYTES", 11<<20),
		UpstreamTimeout:   config.GetEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		StrictLimit:       middleware.RateLimitFromEnv("STRICT", middleware.StrictLimit),
		LenientLimit:      middleware.RateLimitFromEnv("LENIENT", middleware.LenientLimit),
		TrustedProxies:    trustedProxies,
		Logger:            logger,
	})
	if err != nil {
		logger.Error("failed to build router", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := config.GetEnv("PORT", "3000")
	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		logger.Info("api gateway starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}
