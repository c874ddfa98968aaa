package service

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// purgeCache deletes every key under prefix. Failures are logged and never
// surface to callers.
func purgeCache(ctx context.Context, cache *redis.Client, prefix string, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	iter := cache.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := cache.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn().Err(err).Str("key", iter.Val()).Msg("failed to invalidate cache key")
		}
	}
	if err := iter.Err(); err != nil {
		logger.Warn().Err(err).Str("prefix", prefix).Msg("failed to scan cache")
	}
}
