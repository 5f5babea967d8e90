package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exam-portal-backend/internal/config"
)

// SessionRepository keeps the JTI of each user's latest login in Redis.
type SessionRepository struct {
	rdb *redis.Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb *redis.Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

// Store replaces the active JTI for a user. A zero ttl keeps it until logout.
func (r *SessionRepository) Store(ctx context.Context, userID int, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, config.CacheKey.UserSessionKey(userID), jti, ttl).Err()
}

// Get returns the active JTI, or ErrNotFound if the user has no session.
func (r *SessionRepository) Get(ctx context.Context, userID int) (string, error) {
	jti, err := r.rdb.Get(ctx, config.CacheKey.UserSessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return jti, err
}

// Delete ends the user's session.
func (r *SessionRepository) Delete(ctx context.Context, userID int) error {
	return r.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID)).Err()
}
