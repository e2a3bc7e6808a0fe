package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
	sharedredis "github.com/MiguelKingofcodes/project-ppdm/shared/redis"
)

const productListKey = "product:list"

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductWriteRepository inserts products into PostgreSQL.
type ProductWriteRepository struct {
	db DB
}

func NewProductWriteRepository(db DB) *ProductWriteRepository {
	return &ProductWriteRepository{db: db}
}

func (r *ProductWriteRepository) Create(ctx context.Context, product *models.Product) (int64, error) {
	query := `
		INSERT INTO products (name_product, price_product)
		VALUES ($1, $2)
		RETURNING id_product, created_at
	`
	if err := r.db.QueryRow(ctx, query, product.Name, product.Price).Scan(&product.ID, &product.CreatedAt); err != nil {
		return 0, apperr.Store(fmt.Errorf("failed to create product: %w", err))
	}
	return product.ID, nil
}

// ProductReadRepository serves the product list from Redis, falling back to
// PostgreSQL on a miss.
type ProductReadRepository struct {
	db    DB
	cache *sharedredis.ViewCache[[]models.ProductView]
}

func NewProductReadRepository(db DB, redisClient *goredis.Client, ttl time.Duration) *ProductReadRepository {
	return &ProductReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[[]models.ProductView](redisClient, ttl),
	}
}

func (r *ProductReadRepository) List(ctx context.Context) ([]models.ProductView, error) {
	if views, ok := r.cache.Get(ctx, productListKey); ok {
		return *views, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id_product, name_product, price_product FROM products ORDER BY id_product`)
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("failed to list products: %w", err))
	}
	defer rows.Close()

	views := []models.ProductView{}
	for rows.Next() {
		var view models.ProductView
		if err := rows.Scan(&view.ID, &view.Name, &view.Price); err != nil {
			return nil, apperr.Store(fmt.Errorf("failed to scan product: %w", err))
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(fmt.Errorf("failed to list products: %w", err))
	}

	r.cache.Set(ctx, productListKey, &views)
	return views, nil
}

// InvalidateList drops the cached list after a write.
func (r *ProductReadRepository) InvalidateList(ctx context.Context) {
	r.cache.Delete(ctx, productListKey)
}
