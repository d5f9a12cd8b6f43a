package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"expensetracker/internal/core"
)

const profileKeyPrefix = "profile:"

// LocalProfileCache keeps profiles in the process-local LRU.
type LocalProfileCache struct {
	lru *LRUCache[core.UserProfile]
}

func NewLocalProfileCache(maxSize int, ttl time.Duration) *LocalProfileCache {
	return &LocalProfileCache{lru: NewLRUCache[core.UserProfile](maxSize, ttl)}
}

func (c *LocalProfileCache) Get(_ context.Context, userID string) (*core.UserProfile, bool) {
	p, ok := c.lru.Get(userID)
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *LocalProfileCache) Set(_ context.Context, p core.UserProfile) {
	c.lru.Set(p.UserID, p)
}

func (c *LocalProfileCache) Delete(_ context.Context, userID string) {
	c.lru.Delete(userID)
}

// CleanExpired lets a Manager sweep the underlying LRU.
func (c *LocalProfileCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

// RedisProfileCache stores profiles as JSON so every API replica shares them.
// Failures are logged and treated as misses.
type RedisProfileCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisProfileCache(client *goredis.Client, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

// DialRedis parses a redis:// URL and checks the server answers.
func DialRedis(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisProfileCache) Get(ctx context.Context, userID string) (*core.UserProfile, bool) {
	data, err := c.client.Get(ctx, profileKeyPrefix+userID).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Profile cache read failed", "component", "cache", "user_id", userID, "error", err)
		}
		return nil, false
	}
	var p core.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		slog.WarnContext(ctx, "Profile cache entry unreadable", "component", "cache", "user_id", userID, "error", err)
		return nil, false
	}
	return &p, true
}

func (c *RedisProfileCache) Set(ctx context.Context, p core.UserProfile) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.WarnContext(ctx, "Profile cache marshal failed", "component", "cache", "user_id", p.UserID, "error", err)
		return
	}
	if err := c.client.Set(ctx, profileKeyPrefix+p.UserID, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Profile cache write failed", "component", "cache", "user_id", p.UserID, "error", err)
	}
}

func (c *RedisProfileCache) Delete(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, profileKeyPrefix+userID).Err(); err != nil {
		slog.WarnContext(ctx, "Profile cache delete failed", "component", "cache", "user_id", userID, "error", err)
	}
}
