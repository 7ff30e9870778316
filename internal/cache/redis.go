package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a shared Redis instance, for deployments
// running more than one aggregator replica. Values are stored as JSON.
type Redis[V any] struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to the given Redis URL and verifies the connection.
func NewRedis[V any](url, prefix string) (*Redis[V], error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis[V]{client: client, prefix: prefix}, nil
}

// Close releases the underlying connection.
func (r *Redis[V]) Close() error {
	return r.client.Close()
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return zero, false
	}
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false
	}
	return value, true
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.client.Set(ctx, r.prefix+key, data, ttl)
}

func (r *Redis[V]) Has(ctx context.Context, key string) bool {
	exists, err := r.client.Exists(ctx, r.prefix+key).Result()
	return err == nil && exists > 0
}

func (r *Redis[V]) Delete(ctx context.Context, key string) {
	r.client.Del(ctx, r.prefix+key)
}

func (r *Redis[V]) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() == nil && len(keys) > 0 {
		r.client.Del(ctx, keys...)
	}
}
