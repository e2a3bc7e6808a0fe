package query

import (
	"context"

	"github.com/MiguelKingofcodes/project-ppdm/shared/cqrs"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
)

type ProductReader interface {
	List(ctx context.Context) ([]models.ProductView, error)
}

// ProductQueryService reads the product list from the Redis cache (with a
// Postgres fallback).
type ProductQueryService struct {
	readRepo ProductReader
}

func NewProductQueryService(readRepo ProductReader) *ProductQueryService {
	return &ProductQueryService{readRepo: readRepo}
}

func (s *ProductQueryService) ListProducts(ctx context.Context, _ cqrs.ListProductsQuery) ([]models.ProductView, error) {
	return s.readRepo.List(ctx)
}
