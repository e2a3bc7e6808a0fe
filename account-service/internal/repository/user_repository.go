package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
)

const uniqueViolation = "23505"

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Create inserts a user without a profile image and returns the assigned id.
// The unique index on email turns a lost registration race into
// ErrDuplicateEmail.
func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query := `
		INSERT INTO users (name, email, password_hash, security_question, security_answer_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.SecurityQuestion, user.SecurityAnswerHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, apperr.ErrDuplicateEmail
		}
		return 0, apperr.Store(fmt.Errorf("failed to create user: %w", err))
	}
	return user.ID, nil
}

func (r *UserWriteRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, apperr.Store(fmt.Errorf("failed to check email: %w", err))
	}
	return exists, nil
}

func (r *UserWriteRepository) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE email = $1`
	result, err := r.db.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		return apperr.Store(fmt.Errorf("failed to update password: %w", err))
	}
	return requireOneRow(result)
}

// UpdateProfileImage replaces the stored image in a single statement, so a
// reader sees either the old image or the new one.
func (r *UserWriteRepository) UpdateProfileImage(ctx context.Context, userID int64, image []byte) error {
	if len(image) == 0 {
		return apperr.Validation("profile image is empty")
	}
	query := `UPDATE users SET profile_image = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, image)
	if err != nil {
		return apperr.Store(fmt.Errorf("failed to update profile image: %w", err))
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Store(fmt.Errorf("failed to check rows affected: %w", err))
	}
	if rows == 0 {
		return apperr.NotFound("user")
	}
	return nil
}
