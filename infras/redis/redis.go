package redis

import (
	"braidbook/config"
	"context"
	"net"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Options builds client options from CACHE_REDIS_URL when set, otherwise from the primary host settings.
func Options(cfg *config.Config) (*goRedis.Options, error) {
	redisCfg := cfg.Cache.Redis

	var opts *goRedis.Options

	if redisCfg.URL != "" {
		parsed, err := goRedis.ParseURL(redisCfg.URL)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		opts = parsed
	} else {
		opts = &goRedis.Options{
			Addr:     net.JoinHostPort(redisCfg.Primary.Host, redisCfg.Primary.Port),
			Password: redisCfg.Primary.Password,
			DB:       redisCfg.Primary.DB,
		}
	}

	if redisCfg.PoolSize > 0 {
		opts.PoolSize = redisCfg.PoolSize
	}

	if redisCfg.DialTimeoutMs > 0 {
		opts.DialTimeout = time.Duration(redisCfg.DialTimeoutMs) * time.Millisecond
	}

	return opts, nil
}

// New connects to the cache. A failed ping is only logged: the cache and rate limiter degrade without redis.
func New(cfg *config.Config) *goRedis.Client {
	opts, err := Options(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid redis configuration")
	}

	client := goRedis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout+time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", opts.Addr).Msg("Redis unreachable, caching degraded")

		return client
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis")

	return client
}
