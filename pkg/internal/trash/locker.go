package trash

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultLockStripes 默认分段数.
const DefaultLockStripes = 256

// Locker 按用户名哈希分段的互斥锁，保证同一用户同时只有一次清理.
// 不同用户可能落在同一分段上，此时只是串行执行.
type Locker struct {
	stripes []sync.Mutex
}

// NewLocker 创建 n 个分段，n 不大于 0 时使用 DefaultLockStripes.
func NewLocker(n int) *Locker {
	if n <= 0 {
		n = DefaultLockStripes
	}

	return &Locker{stripes: make([]sync.Mutex, n)}
}

func (l *Locker) stripe(user string) *sync.Mutex {
	return &l.stripes[xxhash.Sum64String(user)%uint64(len(l.stripes))]
}

// Lock 锁住用户并返回解锁函数.
func (l *Locker) Lock(user string) (unlock func()) {
	mu := l.stripe(user)
	mu.Lock()

	return mu.Unlock
}

// TryLock 尝试锁住用户，失败时 ok 为 false.
func (l *Locker) TryLock(user string) (unlock func(), ok bool) {
	mu := l.stripe(user)
	if !mu.TryLock() {
		return nil, false
	}

	return mu.Unlock, true
}
