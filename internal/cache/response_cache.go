// Package cache provides a redis-backed cache for generated responses.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ResponseCache stores generated answers keyed by normalized message and
// emotion, so repeated common queries skip the generation engine.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache connects to redis and verifies the connection.
func NewResponseCache(addr string, ttl time.Duration) (*ResponseCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResponseCache{client: client, ttl: ttl}, nil
}

// Key builds the cache key from the normalized message and emotion label.
// Emotion is part of the key because tone-sensitive answers differ.
func Key(message, emotion string) string {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if emotion == "" {
		emotion = "any"
	}
	sum := md5.Sum([]byte(normalized + "_" + emotion))
	return "response:" + hex.EncodeToString(sum[:])
}

// Get returns the cached response, or empty and false on a miss.
func (c *ResponseCache) Get(ctx context.Context, message, emotion string) (string, bool) {
	val, err := c.client.Get(ctx, Key(message, emotion)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a response under the cache TTL.
func (c *ResponseCache) Set(ctx context.Context, message, emotion, response string) error {
	return c.client.Set(ctx, Key(message, emotion), response, c.ttl).Err()
}

// Close releases the redis connection.
func (c *ResponseCache) Close() error {
	return c.client.Close()
}
