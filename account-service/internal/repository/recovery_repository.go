package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/utils"
)

const (
	recoveryGrantKeyPrefix = "recovery:grant:"
	recoveryGrantBytes     = 32
)

// RecoveryRepository stores the single-use grants handed out after a
// correct security answer. At most one grant exists per email.
type RecoveryRepository struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRecoveryRepository(client *goredis.Client, ttl time.Duration) *RecoveryRepository {
	return &RecoveryRepository{client: client, ttl: ttl}
}

// Issue replaces any outstanding grant for email and returns the new one.
func (r *RecoveryRepository) Issue(ctx context.Context, email string) (string, error) {
	token, err := utils.GenerateToken(recoveryGrantBytes)
	if err != nil {
		return "", apperr.Store(err)
	}
	if err := r.client.Set(ctx, recoveryGrantKeyPrefix+email, token, r.ttl).Err(); err != nil {
		return "", apperr.Store(fmt.Errorf("failed to store recovery grant: %w", err))
	}
	return token, nil
}

// Consume atomically removes the grant for email and reports whether it
// matched token. A mismatch still burns the grant.
func (r *RecoveryRepository) Consume(ctx context.Context, email, token string) (bool, error) {
	stored, err := r.client.GetDel(ctx, recoveryGrantKeyPrefix+email).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Store(fmt.Errorf("failed to consume recovery grant: %w", err))
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}

// Restore puts a consumed grant back with a fresh TTL. A grant issued in the
// meantime is left in place.
func (r *RecoveryRepository) Restore(ctx context.Context, email, token string) error {
	if err := r.client.SetNX(ctx, recoveryGrantKeyPrefix+email, token, r.ttl).Err(); err != nil {
		return apperr.Store(fmt.Errorf("failed to restore recovery grant: %w", err))
	}
	return nil
}

func (r *RecoveryRepository) Revoke(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, recoveryGrantKeyPrefix+email).Err(); err != nil {
		return apperr.Store(fmt.Errorf("failed to revoke recovery grant: %w", err))
	}
	return nil
}
