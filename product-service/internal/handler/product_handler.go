package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/cqrs"
	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
)

// ProductCommander defines the write-side operations used by ProductHandler.
type ProductCommander interface {
	CreateProduct(context.Context, cqrs.CreateProductCommand) (int64, error)
}

// ProductQuerier defines the read-side operations used by ProductHandler.
type ProductQuerier interface {
	ListProducts(context.Context, cqrs.ListProductsQuery) ([]models.ProductView, error)
}

type ProductHandler struct {
	commands ProductCommander
	queries  ProductQuerier
}

// CreateProductRequest uses pointers so that a missing price is told apart
// from a price of zero.
type CreateProductRequest struct {
	Name  string   `json:"name_product" validate:"required"`
	Price *float64 `json:"price_product" validate:"required,gte=0"`
}

func NewProductHandler(commands ProductCommander, queries ProductQuerier) *ProductHandler {
	return &ProductHandler{commands: commands, queries: queries}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, apperr.Kind(apperr.ErrValidation), "invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	id, err := h.commands.CreateProduct(c.Request.Context(), cqrs.CreateProductCommand{
		Name:  req.Name,
		Price: *req.Price,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id_product": id})
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.queries.ListProducts(c.Request.Context(), cqrs.ListProductsQuery{})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// NewRouter wires the product routes onto a fresh engine. Only
// trustedProxies may set X-Forwarded-For; nil trusts none.
func NewRouter(h *ProductHandler, logger *slog.Logger, trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	router.Use(gin.Recovery())
	if logger != nil {
		router.Use(middleware.LoggingMiddleware(logger))
	}

	router.GET("/products", h.ListProducts)
	router.POST("/products", h.CreateProduct)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router, nil
}
