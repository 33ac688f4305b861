// Package cache 提供基于键值存储的泛型缓存，值以 JSON（sonic）序列化.
//
// 基本用法:
//
//	c := cache.New(kvStore, "quota:")
//
//	q, err := cache.GetOrSet(ctx, c, "alice", func() (Quota, error) {
//	    return source.AvailableQuota(ctx, "alice")
//	}, time.Minute)
//
// 缓存未命中不是错误；底层 KV 的读取错误会让 GetOrSet 回退到 getter.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/trashbin/pkg/internal/storage/kv"
)

// ErrMiss 缓存未命中.
var ErrMiss = errors.New("cache miss")

// Cache 基于 KV 存储的缓存，所有键带统一前缀.
type Cache struct {
	store  kv.Store
	prefix string
}

// New 创建缓存实例.
func New(store kv.Store, prefix string) *Cache {
	return &Cache{store: store, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get 读取缓存值，未命中时返回 ErrMiss.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T

	data, err := c.store.Get(ctx, c.key(key))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return value, ErrMiss
	}

	if err != nil {
		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 写入缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.store.Set(ctx, c.key(key), data, ttl)
}

// GetOrSet 命中时直接返回，否则调用 getter 并写回缓存. 写回失败不影响返回值.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	value, err := getter()
	if err != nil {
		return value, err
	}

	_ = Set(ctx, c, key, value, ttl)

	return value, nil
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.key(key))
}

// Clear 删除该前缀下的所有键.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, c.prefix+"*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}
