package gateway

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MiguelKingofcodes/project-ppdm/shared/logging"
	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
)

type Config struct {
	AccountServiceURL string
	ProductServiceURL string
	// MaxBodyBytes caps every proxied request body, uploads included.
	MaxBodyBytes    int64
	UpstreamTimeout time.Duration
	// TrustedProxies may set X-Forwarded-For. Nil trusts none, so the rate
	// limits key on the socket address.
	TrustedProxies []string
	StrictLimit    middleware.RateLimitConfig
	LenientLimit   middleware.RateLimitConfig
	Logger         *slog.Logger
}

// NewRouter builds the public route table. Login and the recovery steps share
// one strict per-IP bucket; everything else uses the lenient one.
func NewRouter(cfg Config) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	router.Use(gin.Recovery())
	if cfg.Logger != nil {
		router.Use(middleware.LoggingMiddleware(cfg.Logger))
	}

	client := &http.Client{Timeout: cfg.UpstreamTimeout}
	account := proxyTo(client, cfg.AccountServiceURL)
	product := proxyTo(client, cfg.ProductServiceURL)

	strict := middleware.RateLimitByIP(cfg.StrictLimit)
	lenient := middleware.RateLimitByIP(cfg.LenientLimit)
	limitBody := middleware.BodyLimit(cfg.MaxBodyBytes)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-gateway"})
	})

	// Account routes
	router.POST("/register", lenient, limitBody, account)
	router.POST("/login", strict, limitBody, account)
	router.POST("/check-email", strict, limitBody, account)
	router.POST("/check-security-question-answer", strict, limitBody, account)
	router.POST("/reset-password", strict, limitBody, account)
	router.POST("/upload", lenient, limitBody, account)
	router.GET("/image/:userId", lenient, account)
	router.GET("/profile", lenient, account)

	// Product routes
	router.GET("/products", lenient, product)
	router.POST("/products", lenient, limitBody, product)

	return router, nil
}

func proxyTo(client *http.Client, serviceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.FromContext(c.Request.Context())

		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				middleware.RespondWithError(c, http.StatusRequestEntityTooLarge, "ValidationError", "request body too large")
				return
			}
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, bytes.NewReader(bodyBytes))
		if err != nil {
			middleware.RespondWithError(c, http.StatusInternalServerError, "StoreError", "failed to create request")
			return
		}

		for key, values := range c.Request.Header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		req.Header.Set("X-Forwarded-For", c.ClientIP())

		resp, err := client.Do(req)
		if err != nil {
			log.Error("error proxying request", "target", targetURL, "err", err)
			middleware.RespondWithError(c, http.StatusBadGateway, "StoreError", "service unavailable")
			return
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusBadGateway, "StoreError", "failed to read response")
			return
		}

		for key, values := range resp.Header {
			if key == "Content-Length" {
				continue
			}
			for _, value := range values {
				c.Header(key, value)
			}
		}

		c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	}
}
