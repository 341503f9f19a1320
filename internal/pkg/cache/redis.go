// Package cache backs the gateway's idempotency handling with Redis.
// A duplicate POST /orders carrying the same X-Idempotency-Key replays
// the order id recorded for the first attempt instead of creating a
// second order.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore remembers which idempotency keys have been used and
// the order id each one produced.
type IdempotencyStore interface {
	// Remember records key -> orderID if the key is new. It returns the
	// order id now associated with the key and whether this call was
	// the first to claim it.
	Remember(ctx context.Context, key, orderID string) (string, bool, error)

	// Forget releases a key claimed by Remember. Needed when the
	// submission fails after the claim: the key must not stay mapped
	// to an order that was never persisted.
	Forget(ctx context.Context, key string) error
}

type redisStore struct {
	client      *redis.Client
	serviceName string
	ttl         time.Duration
}

// NewRedisStore builds an IdempotencyStore on the given Redis client.
// Keys expire after ttl; a replay beyond that window creates a new order.
func NewRedisStore(client *redis.Client, serviceName string, ttl time.Duration) IdempotencyStore {
	return &redisStore{client: client, serviceName: serviceName, ttl: ttl}
}

func (r *redisStore) Remember(ctx context.Context, key, orderID string) (string, bool, error) {
	k := r.generateKey("create-order", key)

	created, err := r.client.SetNX(ctx, k, orderID, r.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("cache: setnx %s: %w", k, err)
	}
	if created {
		return orderID, true, nil
	}

	existing, err := r.client.Get(ctx, k).Result()
	if err == redis.Nil {
		// Key expired between SetNX and Get; treat as first use.
		return orderID, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: get %s: %w", k, err)
	}
	return existing, false, nil
}

func (r *redisStore) Forget(ctx context.Context, key string) error {
	k := r.generateKey("create-order", key)
	if err := r.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("cache: del %s: %w", k, err)
	}
	return nil
}

func (r *redisStore) generateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.serviceName, operation, key)
}
