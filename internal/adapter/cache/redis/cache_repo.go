package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/config"
	"github.com/gokhancode/PokemonNFT/internal/port/cache"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type pokemonCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", zap.String("address", cfg.Address), zap.Error(err))
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Address, err)
	}
	logger.Info("Successfully connected to Redis", zap.String("address", cfg.Address))
	return rdb, nil
}

// NewPokemonCacheRepository wraps a redis client as the attribute cache used
// by the reconciler.
func NewPokemonCacheRepository(client *redis.Client, logger *zap.Logger) cache.CacheRepository {
	return &pokemonCacheRepository{
		client: client,
		logger: logger,
	}
}

func (r *pokemonCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrNotFound
		}
		r.logger.Error("Redis Get operation failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("pokemonCacheRepository.Get for key '%s': %w", key, err)
	}
	return val, nil
}

func (r *pokemonCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("Redis Set operation failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("pokemonCacheRepository.Set for key '%s': %w", key, err)
	}
	return nil
}

func (r *pokemonCacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Redis Del operation failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("pokemonCacheRepository.Delete for key '%s': %w", key, err)
	}
	return nil
}
