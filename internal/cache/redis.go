package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/daszybak/polymarket_cli/internal/model"
)

const redisKeyPrefix = "polymarket:history:"

// Redis shares cached series between processes. Expiry is left to the server
// through the key TTL. Backend failures are logged and reported as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ Cache = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "redis_cache")),
	}
}

// ConnectRedis parses url, applies short timeouts and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if opt.DialTimeout == 0 {
		opt.DialTimeout = 2 * time.Second
	}
	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = 2 * time.Second
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = 2 * time.Second
	}
	if opt.MaxRetries == 0 {
		opt.MaxRetries = 1
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Get(ctx context.Context, key string) (model.PriceSeries, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var series model.PriceSeries
	if err := json.Unmarshal(val, &series); err != nil {
		r.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if series == nil {
		series = model.PriceSeries{}
	}
	return series, true
}

func (r *Redis) Set(ctx context.Context, key string, series model.PriceSeries) {
	if series == nil {
		series = model.PriceSeries{}
	}
	data, err := json.Marshal(series)
	if err != nil {
		r.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
