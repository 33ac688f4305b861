// Package kv 提供键值存储，用于保存批处理偏移量与配额缓存.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/yeisme/trashbin/pkg/configs"
)

// ErrKeyNotFound 键不存在或已过期.
var ErrKeyNotFound = errors.New("key not found")

// Store 定义键值存储接口.
type Store interface {
	// Get 获取键的值，不存在时返回包装了 ErrKeyNotFound 的错误.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl <= 0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 返回匹配 glob 模式的键，空模式返回全部.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// Factory 根据配置创建 Store.
type Factory func(ctx context.Context, cfg configs.KVConfig) (Store, error)

var factories = make(map[configs.KVType]Factory)

// RegisterFactory 注册 KV 工厂函数.
func RegisterFactory(kvType configs.KVType, factory Factory) {
	factories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表（已排序）.
func GetRegisteredKVTypes() []configs.KVType {
	types := make([]configs.KVType, 0, len(factories))
	for kvType := range factories {
		types = append(types, kvType)
	}

	slices.Sort(types)

	return types
}

// New 根据 cfg.Type 创建 Store.
func New(ctx context.Context, cfg configs.KVConfig) (Store, error) {
	factory, exists := factories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", cfg.Type)
	}

	return factory(ctx, cfg)
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

// matchKey 空模式匹配所有键.
func matchKey(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	ok, err := path.Match(pattern, key)

	return err == nil && ok
}
