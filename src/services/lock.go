package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pos-recipe-engine/src/config"
	"pos-recipe-engine/src/models"
)

// Locker guards a production run across service instances. Row locks in the
// database remain the source of truth; the lock only turns obvious
// contention into an early retryable error.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

type RedisLocker struct {
	Client *redislock.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewRedisLocker(client *redislock.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Client: client, TTL: ttl, Logger: config.GetLogger()}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	lock, err := l.Client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, &models.ConcurrencyConflictError{Op: "obtain " + key, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}

	return func() {
		// Release must outlive a cancelled request context.
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(loggerOr(l.Logger), "RedisLocker", "Acquire", "release lock", key, err)
		}
	}, nil
}

func productionLockKey(tenantID, recipeID uuid.UUID) string {
	return fmt.Sprintf("lock:production:%s:%s", tenantID, recipeID)
}

func loggerOr(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return config.GetLogger()
	}
	return l
}
