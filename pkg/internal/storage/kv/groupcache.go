package kv

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/trashbin/pkg/configs"
)

// GroupcacheKV 基于 groupcache 的 KV. 本节点写入的数据保存在本地，
// 读取时先查本地，本地没有再通过 groupcache 向对等节点获取.
// groupcache 中的条目不可失效，因此本地数据总是优先.
type GroupcacheKV struct {
	group *groupcache.Group
	mu    sync.RWMutex
	data  map[string][]byte
}

var (
	// groupcache 的 group 和 HTTPPool 都是进程级的，不能重复注册.
	groupMu   sync.Mutex
	groupKVs  = map[string]*GroupcacheKV{}
	peersOnce sync.Once
)

// NewGroupcacheKV 创建（或复用同名的）groupcache KV.
func NewGroupcacheKV(cfg configs.GroupcacheKVConfig) (*GroupcacheKV, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("groupcache: empty group name")
	}

	groupMu.Lock()
	defer groupMu.Unlock()

	if kv, ok := groupKVs[cfg.Name]; ok {
		return kv, nil
	}

	kv := &GroupcacheKV{data: make(map[string][]byte)}

	getter := groupcache.GetterFunc(func(_ context.Context, key string, dest groupcache.Sink) error {
		kv.mu.RLock()
		value, ok := kv.data[key]
		kv.mu.RUnlock()

		if !ok {
			return notFound(key)
		}

		return dest.SetBytes(value)
	})

	if groupcache.GetGroup(cfg.Name) != nil {
		return nil, fmt.Errorf("groupcache: group %s already registered", cfg.Name)
	}

	kv.group = groupcache.NewGroup(cfg.Name, cfg.CacheBytes, getter)

	if len(cfg.Peers) > 0 {
		peersOnce.Do(func() {
			pool := groupcache.NewHTTPPoolOpts(cfg.Self, &groupcache.HTTPPoolOptions{})
			pool.Set(cfg.Peers...)
		})
	}

	groupKVs[cfg.Name] = kv

	return kv, nil
}

func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	local, ok := g.data[key]
	g.mu.RUnlock()

	raw := local
	if !ok {
		if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&raw)); err != nil {
			return nil, notFound(key)
		}
	}

	value, expired, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		if ok {
			_ = g.Delete(ctx, key)
		}

		return nil, notFound(key)
	}

	return slices.Clone(value), nil
}

func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl, time.Now())
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.data[key] = slices.Clone(encoded)
	g.mu.Unlock()

	return nil
}

func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

func (g *GroupcacheKV) Exists(ctx context.Context, key string) (bool, error) {
	g.mu.RLock()
	_, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if _, err := g.Get(ctx, key); err != nil {
		return false, nil
	}

	return true, nil
}

// Keys 只返回本节点写入的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(g.data))

	for key, raw := range g.data {
		if _, expired, err := decodeWithTTL(raw, now); err != nil || expired {
			continue
		}

		if matchKey(pattern, key) {
			keys = append(keys, key)
		}
	}

	slices.Sort(keys)

	return keys, nil
}

func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterFactory(configs.KVTypeGroupcache, func(_ context.Context, cfg configs.KVConfig) (Store, error) {
		return NewGroupcacheKV(cfg.Groupcache)
	})
}
