// Package redispkg provides redis client setup.
package redispkg

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Setup configures a redis client and verifies connectivity.
func Setup(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
