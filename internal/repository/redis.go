package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"praktika/internal/config"
	"praktika/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisReportStore keeps the last computed availability report per query
// fingerprint. When a snapshot refresh fails, the facade serves the cached
// report marked stale instead of a blank state.
type RedisReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisReportStore(client *redis.Client, ttl time.Duration) *RedisReportStore {
	return &RedisReportStore{client: client, ttl: ttl}
}

func (r *RedisReportStore) GetReport(ctx context.Context, key string) (*models.AvailabilityReport, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, reportKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report from redis: %w", err)
	}

	var report models.AvailabilityReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

func (r *RedisReportStore) SetReport(ctx context.Context, key string, report *models.AvailabilityReport) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := r.client.Set(ctx, reportKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set report in redis: %w", err)
	}
	return nil
}

func (r *RedisReportStore) ClearReport(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, reportKey(key)).Err(); err != nil {
		return fmt.Errorf("delete report from redis: %w", err)
	}
	return nil
}

func reportKey(key string) string {
	return "availability_report:" + key
}

// Ping verifies the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
