package trash_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/trashbin/pkg/cache"
	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/storage/kv"
	"github.com/yeisme/trashbin/pkg/internal/trash"
)

func TestParseQuota(t *testing.T) {
	tests := []struct {
		in        string
		total     int64
		unlimited bool
		wantErr   bool
	}{
		{in: "", unlimited: true},
		{in: "none", unlimited: true},
		{in: " NONE ", unlimited: true},
		{in: "10 GB", total: 10_000_000_000},
		{in: "1 GiB", total: 1 << 30},
		{in: "512", total: 512},
		{in: "lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			total, unlimited, err := trash.ParseQuota(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}

			if total != tt.total || unlimited != tt.unlimited {
				t.Errorf("ParseQuota(%q) = %d, %v", tt.in, total, unlimited)
			}
		})
	}
}

func TestDBQuotaSource(t *testing.T) {
	db := openDB(t)
	src := trash.NewDBQuotaSource(db, "1 KB")
	ctx := context.Background()

	q, err := src.AvailableQuota(ctx, "unknown")
	if err != nil || q != (expiry.Quota{Bytes: 1000}) {
		t.Errorf("default quota = %+v, %v", q, err)
	}

	if err := src.SetQuota(ctx, "alice", "none", 5); err != nil {
		t.Fatal(err)
	}

	if q, _ := src.AvailableQuota(ctx, "alice"); !q.Unlimited {
		t.Errorf("alice quota = %+v, want unlimited", q)
	}

	if err := src.SetQuota(ctx, "alice", "default", 1200); err != nil {
		t.Fatal(err)
	}

	// 已用超过配额时可用为负
	if q, _ := src.AvailableQuota(ctx, "alice"); q.Bytes != -200 {
		t.Errorf("alice quota = %+v, want -200", q)
	}

	if err := src.SetQuota(ctx, "alice", "plenty", 0); err == nil {
		t.Error("invalid quota accepted")
	}
}

type countingQuota struct {
	calls int
	err   error
}

func (c *countingQuota) AvailableQuota(context.Context, string) (expiry.Quota, error) {
	c.calls++
	return expiry.Quota{Bytes: 42}, c.err
}

func TestCachedQuotaSource(t *testing.T) {
	next := &countingQuota{}
	c := cache.New(kv.NewMemoryKV(), "quota:")
	src := trash.NewCachedQuotaSource(next, c, time.Minute)
	ctx := context.Background()

	for range 3 {
		q, err := src.AvailableQuota(ctx, "alice")
		if err != nil || q.Bytes != 42 {
			t.Fatalf("AvailableQuota = %+v, %v", q, err)
		}
	}

	if next.calls != 1 {
		t.Errorf("underlying calls = %d, want 1", next.calls)
	}

	cached, ok := src.(*trash.CachedQuotaSource)
	if !ok {
		t.Fatalf("got %T", src)
	}

	if err := cached.Invalidate(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	_, _ = src.AvailableQuota(ctx, "alice")

	if next.calls != 2 {
		t.Errorf("underlying calls after invalidate = %d, want 2", next.calls)
	}
}

func TestCachedQuotaSourceErrorsNotCached(t *testing.T) {
	next := &countingQuota{err: errors.New("db down")}
	src := trash.NewCachedQuotaSource(next, cache.New(kv.NewMemoryKV(), "q:"), time.Minute)

	for range 2 {
		if _, err := src.AvailableQuota(context.Background(), "alice"); err == nil {
			t.Fatal("expected error")
		}
	}

	if next.calls != 2 {
		t.Errorf("calls = %d, want 2", next.calls)
	}
}

func TestCachedQuotaSourceDisabled(t *testing.T) {
	next := &countingQuota{}

	if src := trash.NewCachedQuotaSource(next, nil, time.Minute); src != next {
		t.Error("nil cache should return next")
	}

	if src := trash.NewCachedQuotaSource(next, cache.New(kv.NewMemoryKV(), ""), 0); src != next {
		t.Error("zero ttl should return next")
	}
}
