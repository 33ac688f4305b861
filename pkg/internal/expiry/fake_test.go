package expiry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
)

// now 测试统一使用的当前时间.
var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func daysAgo(d int) int64 {
	return now.Add(-time.Duration(d) * 24 * time.Hour).Unix()
}

type deleteCall struct {
	user  string
	name  string
	mtime int64
}

// fakeStore 内存回收站，记录所有调用.
type fakeStore struct {
	mu       sync.Mutex
	items    map[string][]expiry.TrashItem
	failOn   map[string]bool // name -> 删除失败
	listErr  error
	sizeErr  error
	unsorted bool

	listCalls   int
	deleteCalls []deleteCall
	onDelete    func(call deleteCall)
}

func newFakeStore(user string, items ...expiry.TrashItem) *fakeStore {
	return &fakeStore{
		items:  map[string][]expiry.TrashItem{user: items},
		failOn: map[string]bool{},
	}
}

func (s *fakeStore) ListItems(_ context.Context, user string) ([]expiry.TrashItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++

	if s.listErr != nil {
		return nil, s.listErr
	}

	out := append([]expiry.TrashItem(nil), s.items[user]...)
	if s.unsorted && len(out) > 1 {
		out[0], out[len(out)-1] = out[len(out)-1], out[0]
	}

	return out, nil
}

func (s *fakeStore) DeleteItem(_ context.Context, user, name string, mtime int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := deleteCall{user: user, name: name, mtime: mtime}
	s.deleteCalls = append(s.deleteCalls, call)

	if s.onDelete != nil {
		s.onDelete(call)
	}

	if s.failOn[name] {
		return 0, fmt.Errorf("delete %s: %w", name, errors.New("permission denied"))
	}

	items := s.items[user]
	for i, it := range items {
		if it.Name == name && it.MTime == mtime {
			s.items[user] = append(items[:i:i], items[i+1:]...)
			return it.Size, nil
		}
	}

	return 0, fmt.Errorf("%s: %w", name, expiry.ErrItemNotFound)
}

func (s *fakeStore) TrashSize(_ context.Context, user string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sizeErr != nil {
		return 0, s.sizeErr
	}

	var total int64
	for _, it := range s.items[user] {
		total += it.Size
	}

	return total, nil
}

func (s *fakeStore) deletedNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.deleteCalls))
	for _, c := range s.deleteCalls {
		names = append(names, c.name)
	}

	return names
}

// fixedQuota 返回固定的可用配额.
type fixedQuota struct {
	quota expiry.Quota
	err   error
}

func (q fixedQuota) AvailableQuota(context.Context, string) (expiry.Quota, error) {
	return q.quota, q.err
}

// recordingNotifier 记录删除通知.
type recordingNotifier struct {
	mu      sync.Mutex
	reasons []expiry.Reason
}

func (n *recordingNotifier) ItemPurged(_ context.Context, _ string, _ expiry.TrashItem, _ int64, reason expiry.Reason) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.reasons = append(n.reasons, reason)
}
