// Package cache is a Redis read cache for product-by-id lookups. The API
// runs fine without it; writes always invalidate.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shop-api/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func InitRedis(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return rdb, nil
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func GetProduct(ctx context.Context, rdb *redis.Client, id int) ([]byte, error) {
	return rdb.Get(ctx, productKey(id)).Bytes()
}

func SetProduct(ctx context.Context, rdb *redis.Client, id int, product interface{}, ttl time.Duration) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, productKey(id), data, ttl).Err()
}

func DeleteProduct(ctx context.Context, rdb *redis.Client, id int) error {
	return rdb.Del(ctx, productKey(id)).Err()
}
