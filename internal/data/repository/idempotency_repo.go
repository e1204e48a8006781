package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyPending is stored while the first request is still running.
const IdempotencyPending = "pending"

// IdempotencyRepository remembers the outcome of keyed requests in redis.
type IdempotencyRepository interface {
	// Reserve claims key. When the key is already claimed it returns false
	// and the stored value: IdempotencyPending or the recorded result.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	Complete(ctx context.Context, key, result string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type idempotencyRepository struct {
	client *redis.Client
	log    *zap.Logger
}

func NewIdempotencyRepository(client *redis.Client, log *zap.Logger) IdempotencyRepository {
	return &idempotencyRepository{
		client: client,
		log:    log.With(zap.String("repository", "idempotency")),
	}
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	acquired, err := r.client.SetNX(ctx, key, IdempotencyPending, ttl).Result()
	if err != nil {
		r.log.Error("Failed to reserve idempotency key", zap.Error(err), zap.String("key", key))
		return false, "", fmt.Errorf("reserve %s: %w", key, err)
	}
	if acquired {
		return true, "", nil
	}

	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET, try once more
		acquired, err = r.client.SetNX(ctx, key, IdempotencyPending, ttl).Result()
		if err != nil {
			return false, "", fmt.Errorf("reserve %s: %w", key, err)
		}
		return acquired, IdempotencyPending, nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read %s: %w", key, err)
	}

	return false, value, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, key, result string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, result, ttl).Err(); err != nil {
		r.log.Error("Failed to store idempotency result", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("complete %s: %w", key, err)
	}
	return nil
}

func (r *idempotencyRepository) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Warn("Failed to release idempotency key", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
