package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/trashbin/pkg/cache"
	"github.com/yeisme/trashbin/pkg/internal/storage/kv"
)

type quota struct {
	Bytes     int64 `json:"bytes"`
	Unlimited bool  `json:"unlimited"`
}

func TestGetMiss(t *testing.T) {
	c := cache.New(kv.NewMemoryKV(), "quota:")

	if _, err := cache.Get[quota](context.Background(), c, "alice"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("Get() error = %v, want ErrMiss", err)
	}
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	c := cache.New(kv.NewMemoryKV(), "quota:")

	if err := cache.Set(ctx, c, "alice", quota{Bytes: 1024}, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Get[quota](ctx, c, "alice")
	if err != nil || got.Bytes != 1024 {
		t.Fatalf("Get() = %+v, %v", got, err)
	}
}

func TestGetOrSetCallsGetterOnce(t *testing.T) {
	ctx := context.Background()
	c := cache.New(kv.NewMemoryKV(), "quota:")
	calls := 0

	getter := func() (quota, error) {
		calls++
		return quota{Unlimited: true}, nil
	}

	for range 3 {
		got, err := cache.GetOrSet(ctx, c, "bob", getter, time.Minute)
		if err != nil || !got.Unlimited {
			t.Fatalf("GetOrSet() = %+v, %v", got, err)
		}
	}

	if calls != 1 {
		t.Errorf("getter called %d times, want 1", calls)
	}
}

func TestGetOrSetPropagatesGetterError(t *testing.T) {
	c := cache.New(kv.NewMemoryKV(), "quota:")
	boom := errors.New("boom")

	_, err := cache.GetOrSet(context.Background(), c, "carol", func() (quota, error) {
		return quota{}, boom
	}, time.Minute)
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrSet() error = %v", err)
	}

	if _, err := cache.Get[quota](context.Background(), c, "carol"); !errors.Is(err, cache.ErrMiss) {
		t.Error("failed getter result must not be cached")
	}
}

func TestClearOnlyOwnPrefix(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryKV()
	c := cache.New(store, "quota:")

	_ = cache.Set(ctx, c, "alice", quota{}, 0)
	_ = store.Set(ctx, "cronjob_trash_expiry_offset", []byte("500"), 0)

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	if ok, _ := store.Exists(ctx, "quota:alice"); ok {
		t.Error("quota:alice should be cleared")
	}

	if ok, _ := store.Exists(ctx, "cronjob_trash_expiry_offset"); !ok {
		t.Error("offset key must survive Clear")
	}
}

func BenchmarkGetOrSet(b *testing.B) {
	ctx := context.Background()
	c := cache.New(kv.NewMemoryKV(), "bench:")

	for b.Loop() {
		_, _ = cache.GetOrSet(ctx, c, "k", func() (quota, error) { return quota{Bytes: 1}, nil }, time.Minute)
	}
}
