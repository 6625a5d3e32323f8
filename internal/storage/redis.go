package storage

import (
	"context"
	"fmt"

	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
)

var _ Store = (*Redis)(nil)

// Redis stores values as plain Redis strings without expiry. Clear only
// removes keys under prefix so that a shared database is left intact.
type Redis struct {
	client *pkgredis.Client
	prefix string
}

func NewRedis(client *pkgredis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := r.client.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, ok, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	_, err := r.client.FlushByPattern(ctx, r.prefix+"*")
	return err
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
