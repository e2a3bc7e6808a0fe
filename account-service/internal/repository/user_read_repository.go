package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
	sharedredis "github.com/MiguelKingofcodes/project-ppdm/shared/redis"
)

const (
	userViewKeyPrefix = "user:view:"
	userViewTTL       = time.Hour
)

// UserReadRepository handles all read operations for users. Credential rows
// always come from PostgreSQL; only the public UserView is cached in Redis.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, userViewTTL),
	}
}

// GetByEmail fetches the full credential row, including hashes and image.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, security_question, security_answer_hash,
			   profile_image, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user models.User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.SecurityQuestion, &user.SecurityAnswerHash,
		&user.ProfileImage, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("failed to get user: %w", err))
	}
	return &user, nil
}

// GetProfileImage returns NotFound both for unknown users and for users
// without an image.
func (r *UserReadRepository) GetProfileImage(ctx context.Context, userID int64) ([]byte, error) {
	var image []byte
	err := r.db.QueryRowContext(ctx, `SELECT profile_image FROM users WHERE id = $1`, userID).Scan(&image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("failed to get profile image: %w", err))
	}
	if len(image) == 0 {
		return nil, apperr.NotFound("profile image")
	}
	return image, nil
}

// GetViewByID returns a UserView from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetViewByID(ctx context.Context, userID int64) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, viewKey(userID)); ok {
		return view, nil
	}

	query := `
		SELECT id, name, email, profile_image IS NOT NULL
		FROM users
		WHERE id = $1
	`
	var view models.UserView
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&view.UserID, &view.Name, &view.Email, &view.HasPhoto)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, apperr.Store(fmt.Errorf("failed to get user: %w", err))
	}

	r.CacheUserView(ctx, &view)
	return &view, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, viewKey(view.UserID), view)
}

func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID int64) {
	r.cache.Delete(ctx, viewKey(userID))
}

func viewKey(userID int64) string {
	return userViewKeyPrefix + strconv.FormatInt(userID, 10)
}
