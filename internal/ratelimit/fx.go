package ratelimit

import (
	"context"

	"github.com/depictapp/depict/internal/clock"
	"github.com/depictapp/depict/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLimiter selects the backend at startup: redis when configured,
// otherwise the single-process memory fallback.
func NewLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, clk clock.Clock) Limiter {
	log = log.Named("ratelimit")

	if cfg.RateLimit.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
		log.Info("using redis rate limiter", zap.String("addr", cfg.RateLimit.RedisAddr))
		return NewRedisLimiter(client)
	}

	limiter := NewMemoryLimiter(clk)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			limiter.Close()
			return nil
		},
	})
	log.Warn("no redis configured, using in-process rate limiter (single instance only)")
	return limiter
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
)
