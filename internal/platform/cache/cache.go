package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a namespaced key/value store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	DeleteNamespace(ctx context.Context, namespace string) error
}

type redisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, namespace+":"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (c *redisCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, namespace+":"+key, value, ttl).Err()
}

func (c *redisCache) DeleteNamespace(ctx context.Context, namespace string) error {
	iter := c.client.Scan(ctx, 0, namespace+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// GetJSON decodes a cached JSON value into dst.
func GetJSON(ctx context.Context, c Cache, namespace, key string, dst interface{}) error {
	b, err := c.Get(ctx, namespace, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func SetJSON(ctx context.Context, c Cache, namespace, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, namespace, key, b, ttl)
}

// NewRedisClient builds a single-node client; cluster mode is not used.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
