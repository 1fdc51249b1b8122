// Package cache is the read-model cache: a time-boxed Redis cache for GET
// responses, keyed by route path plus serialized query params, with tag-based
// invalidation. Any Redis failure degrades to a cache miss, never to a
// request failure.
package cache

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 60 * time.Second

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// New connects to Redis via URL and verifies the connection.
func New(redisURL string) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: DefaultTTL, prefix: "rm:"}
}

// SetTTL overrides the default entry lifetime.
func (c *Cache) SetTTL(ttl time.Duration) {
	if c != nil && ttl > 0 {
		c.ttl = ttl
	}
}

// Key builds the cache key from the route path and its query params, sorted
// so param order never splits the cache.
func Key(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(path)
	for _, k := range keys {
		b.WriteByte('?')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Get returns the cached payload for key, or false on a miss. A nil cache or
// a Redis error is a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: get %s: %v", key, err)
		return nil, false
	}
	return data, true
}

// Set stores the payload under key and registers the key under each tag so a
// later Invalidate can find it. Only called after a fully successful read;
// failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, payload []byte, tags ...string) {
	if c == nil {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.prefix+key, payload, c.ttl)
	for _, tag := range tags {
		tagKey := c.prefix + "tag:" + tag
		pipe.SAdd(ctx, tagKey, c.prefix+key)
		// Tag sets outlive their members slightly.
		pipe.Expire(ctx, tagKey, c.ttl*2)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

// Invalidate drops every cached entry registered under any of the tags. This
// is the single invalidation step all mutations funnel through.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) {
	if c == nil || len(tags) == 0 {
		return
	}
	for _, tag := range tags {
		tagKey := c.prefix + "tag:" + tag
		keys, err := c.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			log.Printf("cache: invalidate tag %s: %v", tag, err)
			continue
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				log.Printf("cache: invalidate tag %s: %v", tag, err)
			}
		}
		if err := c.client.Del(ctx, tagKey).Err(); err != nil {
			log.Printf("cache: invalidate tag %s: %v", tag, err)
		}
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
