package revalidate

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisInvalidator deletes cached page renders and announces each path on a
// channel so every renderer replica drops its local copy.
type RedisInvalidator struct {
	client    redis.UniversalClient
	keyPrefix string
	channel   string
}

// NewRedisInvalidator constructs a RedisInvalidator.
func NewRedisInvalidator(client redis.UniversalClient, keyPrefix, channel string) (*RedisInvalidator, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisInvalidator{client: client, keyPrefix: keyPrefix, channel: channel}, nil
}

// Invalidate implements site.Invalidator.
func (r *RedisInvalidator) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = r.keyPrefix + p
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, keys...)
	if r.channel != "" {
		for _, p := range paths {
			pipe.Publish(ctx, r.channel, p)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate: %w", err)
	}
	return nil
}
