package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
)

type RouterConfig struct {
	Logger    *slog.Logger
	JWTSecret []byte
	// StrictLimit guards login and the recovery steps. Nil disables it.
	StrictLimit gin.HandlerFunc
	// TrustedProxies may set X-Forwarded-For, normally only the gateway.
	// Nil trusts none.
	TrustedProxies []string
}

// NewRouter wires the account routes onto a fresh engine.
func NewRouter(h *AccountHandler, cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	router.Use(gin.Recovery())
	if cfg.Logger != nil {
		router.Use(middleware.LoggingMiddleware(cfg.Logger))
	}

	strict := cfg.StrictLimit
	if strict == nil {
		strict = func(c *gin.Context) { c.Next() }
	}

	router.POST("/register", h.Register)
	router.POST("/login", strict, h.Login)
	router.POST("/check-email", strict, h.CheckEmail)
	router.POST("/check-security-question-answer", strict, h.CheckSecurityAnswer)
	router.POST("/reset-password", strict, h.ResetPassword)
	router.POST("/upload", h.UploadProfileImage)
	router.GET("/image/:userId", h.FetchProfileImage)
	router.GET("/profile", middleware.AuthMiddleware(cfg.JWTSecret), h.GetProfile)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router, nil
}
