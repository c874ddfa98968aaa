package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisDialBudget bounds the startup ping. Caching is optional, so a slow
// Redis should fail startup quickly rather than hold the API back.
const redisDialBudget = 3 * time.Second

// ConnectRedis opens the cache used for activation listings and leaderboards.
// An empty URL disables caching and returns a nil client.
func ConnectRedis(ctx context.Context, url, clientName string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if options.ClientName == "" {
		options.ClientName = clientName
	}
	// cache reads sit on the request path; a stalled Redis must degrade to a miss
	options.ReadTimeout = 500 * time.Millisecond
	options.WriteTimeout = 500 * time.Millisecond

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialBudget)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", options.Addr, err)
	}

	return client, nil
}
