package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/janiceparkk/281-SmartCar-sub000/internal/models"
)

// RedisStore provides the notification throttle and the live active-alert
// state the dashboard reads.
type RedisStore struct {
	client      *redis.Client
	throttleTTL time.Duration
}

// NewRedisStore connects to Redis.
func NewRedisStore(ctx context.Context, addr, password string, db int, throttleTTL time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Connected to Redis at %s", addr)

	return &RedisStore{client: client, throttleTTL: throttleTTL}, nil
}

// Allow reports whether an owner notification for (carID, alertType) may
// fire. The first call inside a throttle window claims the slot; repeats
// within the TTL are suppressed.
func (r *RedisStore) Allow(ctx context.Context, carID string, alertType models.AlertType) (bool, error) {
	key := fmt.Sprintf("notify_throttle:%s:%s", carID, alertType)

	ok, err := r.client.SetNX(ctx, key, time.Now().Unix(), r.throttleTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check notify throttle: %w", err)
	}
	return ok, nil
}

// MarkActive adds an alert to the car's active set.
func (r *RedisStore) MarkActive(ctx context.Context, carID, alertID string) error {
	key := fmt.Sprintf("alerts:active:%s", carID)
	if err := r.client.SAdd(ctx, key, alertID).Err(); err != nil {
		return fmt.Errorf("failed to add active alert: %w", err)
	}
	return nil
}

// ClearActive removes an alert from the car's active set.
func (r *RedisStore) ClearActive(ctx context.Context, carID, alertID string) error {
	key := fmt.Sprintf("alerts:active:%s", carID)
	if err := r.client.SRem(ctx, key, alertID).Err(); err != nil {
		return fmt.Errorf("failed to remove active alert: %w", err)
	}
	return nil
}

// ActiveAlerts lists alert IDs currently active for a car.
func (r *RedisStore) ActiveAlerts(ctx context.Context, carID string) ([]string, error) {
	key := fmt.Sprintf("alerts:active:%s", carID)

	ids, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	return ids, nil
}

// Ping verifies the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
