package command

import (
	"context"
	"math"
	"strings"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/cqrs"
	"github.com/MiguelKingofcodes/project-ppdm/shared/events"
	"github.com/MiguelKingofcodes/project-ppdm/shared/logging"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
)

type ProductWriter interface {
	Create(ctx context.Context, product *models.Product) (int64, error)
}

type ListCache interface {
	InvalidateList(ctx context.Context)
}

type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// ProductCommandService writes products to PostgreSQL and drops the cached
// product list.
type ProductCommandService struct {
	writeRepo ProductWriter
	lists     ListCache
	publisher Publisher
}

func NewProductCommandService(writeRepo ProductWriter, lists ListCache, publisher Publisher) *ProductCommandService {
	return &ProductCommandService{writeRepo: writeRepo, lists: lists, publisher: publisher}
}

// MaxPrice is the exclusive upper bound of a NUMERIC(12,2) price.
const MaxPrice = 1e10

func (s *ProductCommandService) CreateProduct(ctx context.Context, cmd cqrs.CreateProductCommand) (int64, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return 0, apperr.Validation("name_product is required")
	}
	if math.IsNaN(cmd.Price) || math.IsInf(cmd.Price, 0) || cmd.Price < 0 {
		return 0, apperr.Validation("price_product must be a non-negative number")
	}

	price := math.Round(cmd.Price*100) / 100
	if price >= MaxPrice {
		return 0, apperr.Validation("price_product must be less than 10000000000")
	}

	product := &models.Product{Name: name, Price: price}
	id, err := s.writeRepo.Create(ctx, product)
	if err != nil {
		return 0, err
	}

	s.lists.InvalidateList(ctx)
	if err := s.publisher.Publish(ctx, events.ProductEventsStream, events.ProductCreated, events.ProductCreatedEvent{
		ProductID: id,
		Name:      product.Name,
		Price:     product.Price,
	}); err != nil {
		logging.FromContext(ctx).Warn("failed to publish event", "event_type", events.ProductCreated, "err", err)
	}
	return id, nil
}
