// Package cache provides Redis caching for measurement reads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ar-measure/backend/internal/config"
	"github.com/ar-measure/backend/internal/models"
)

const (
	measurementKeyPrefix = "measurement:"
	measurementListKey   = "measurements:all"

	cacheTTL = 5 * time.Minute
)

// Cache defines the caching operations for measurements. Every failure is
// absorbed as a miss; the store remains the source of truth.
type Cache interface {
	// Get retrieves a measurement from cache by id, or nil on miss.
	Get(ctx context.Context, id string) (*models.Measurement, error)

	// GetList retrieves the cached measurement list.
	GetList(ctx context.Context) ([]models.Measurement, bool, error)

	// Set stores a measurement and invalidates the list key.
	Set(ctx context.Context, measurement *models.Measurement) error

	// SetList stores the measurement list.
	SetList(ctx context.Context, measurements []models.Measurement) error

	// Delete removes a measurement and invalidates the list key.
	Delete(ctx context.Context, id string) error

	// InvalidateList drops the cached measurement list.
	InvalidateList(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewRedisCache connects to Redis and returns a measurement cache.
func NewRedisCache(cfg *config.Config, logger *zap.Logger) (Cache, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis cache")

	return &RedisCache{
		client: client,
		logger: logger,
		ttl:    cacheTTL,
	}, nil
}

// Get retrieves a measurement from cache by id.
func (c *RedisCache) Get(ctx context.Context, id string) (*models.Measurement, error) {
	key := measurementKeyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, nil
	}

	var measurement models.Measurement
	if err := json.Unmarshal(data, &measurement); err != nil {
		c.logger.Warn("Failed to unmarshal cached measurement", zap.Error(err))
		return nil, nil
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return &measurement, nil
}

// GetList retrieves the cached measurement list.
func (c *RedisCache) GetList(ctx context.Context) ([]models.Measurement, bool, error) {
	data, err := c.client.Get(ctx, measurementListKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Warn("Failed to get measurement list from cache", zap.Error(err))
		return nil, false, nil
	}

	var measurements []models.Measurement
	if err := json.Unmarshal(data, &measurements); err != nil {
		c.logger.Warn("Failed to unmarshal cached measurement list", zap.Error(err))
		return nil, false, nil
	}

	c.logger.Debug("Cache hit for measurement list")
	return measurements, true, nil
}

// Set stores a measurement in cache.
func (c *RedisCache) Set(ctx context.Context, measurement *models.Measurement) error {
	key := measurementKeyPrefix + measurement.ID

	data, err := json.Marshal(measurement)
	if err != nil {
		c.logger.Warn("Failed to marshal measurement for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to set cache", zap.String("key", key), zap.Error(err))
		return err
	}

	// The cached list no longer reflects the store after a write.
	_ = c.InvalidateList(ctx)

	c.logger.Debug("Cached measurement", zap.String("key", key))
	return nil
}

// SetList stores the measurement list in cache.
func (c *RedisCache) SetList(ctx context.Context, measurements []models.Measurement) error {
	data, err := json.Marshal(measurements)
	if err != nil {
		c.logger.Warn("Failed to marshal measurement list for cache", zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, measurementListKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to set measurement list cache", zap.Error(err))
		return err
	}

	c.logger.Debug("Cached measurement list", zap.Int("count", len(measurements)))
	return nil
}

// Delete removes a measurement from cache.
func (c *RedisCache) Delete(ctx context.Context, id string) error {
	key := measurementKeyPrefix + id

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return err
	}

	_ = c.InvalidateList(ctx)

	c.logger.Debug("Deleted from cache", zap.String("key", key))
	return nil
}

// InvalidateList drops the cached measurement list.
func (c *RedisCache) InvalidateList(ctx context.Context) error {
	if err := c.client.Del(ctx, measurementListKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate measurement list cache", zap.Error(err))
		return err
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	c.logger.Info("Closing Redis connection")
	return c.client.Close()
}
