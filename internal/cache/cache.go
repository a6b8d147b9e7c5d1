// Package cache 提供读缓存（Redis / 本地 LRU）与发帖限流
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

// Cache 缓存接口，值以 JSON 序列化存储
type Cache interface {
	// Get 命中时解码到 dest 并返回 true
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache 基于 Redis 的缓存
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

type localItem struct {
	data      []byte
	expiresAt time.Time
}

// LocalCache 进程内 LRU 缓存，Redis 不可用时使用
type LocalCache struct {
	lru *lru.Cache[string, localItem]
	now func() time.Time
}

func NewLocalCache(size int) (*LocalCache, error) {
	l, err := lru.New[string, localItem](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LocalCache{lru: l, now: time.Now}, nil
}

func (c *LocalCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	item, ok := c.lru.Get(key)
	if !ok {
		return false, nil
	}
	if c.now().After(item.expiresAt) {
		c.lru.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(item.data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %s: %w", key, err)
	}
	c.lru.Add(key, localItem{data: data, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}

// Limiter 固定窗口计数限流
type Limiter interface {
	// Allow 返回是否放行以及当前窗口内的计数
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// RedisLimiter 基于 INCR + EXPIRE 的固定窗口限流器，窗口从首次请求开始计时
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	k := "rl:" + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	// 没有过期时间说明是窗口内首个请求，重试不会延长窗口
	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
		}
	}
	n := incr.Val()
	return n <= limit, n, nil
}

type window struct {
	count   int64
	resetAt time.Time
}

// LocalLimiter 进程内固定窗口限流器，语义与 RedisLimiter 一致
type LocalLimiter struct {
	mu      sync.Mutex
	windows *lru.Cache[string, *window]
	now     func() time.Time
}

func NewLocalLimiter(size int) (*LocalLimiter, error) {
	l, err := lru.New[string, *window](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LocalLimiter{windows: l, now: time.Now}, nil
}

func (l *LocalLimiter) Allow(_ context.Context, key string, limit int64, win time.Duration) (bool, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows.Get(key)
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		l.windows.Add(key, w)
	}
	w.count++
	return w.count <= limit, w.count, nil
}
