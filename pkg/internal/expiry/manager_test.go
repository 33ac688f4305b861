package expiry_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
)

const user = "alice"

func newManager(t *testing.T, store *fakeStore, obligation string, quota expiry.QuotaSource, opts ...expiry.Option) (*expiry.Manager, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer

	logger := zerolog.New(&buf)
	m := expiry.NewManager(
		store,
		expiry.NewQuotaPolicy(quota, expiry.DefaultPurgeLimit),
		expiry.NewExpiration(obligation, clock, &logger),
		&logger,
		opts...,
	)

	return m, &buf
}

// 回收站 130 字节，可用配额 60 字节的一半为 30，剩余空间 -100.
func quotaExceededBy100() fixedQuota {
	return fixedQuota{quota: expiry.Quota{Bytes: 60}}
}

func TestScenarioRetentionDisabledQuotaExceeded(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: 100, Size: 50},
		expiry.TrashItem{Name: "b", MTime: 200, Size: 80},
	)
	m, logs := newManager(t, store, expiry.RetentionDisabled, quotaExceededBy100())

	res, err := m.ExpireTrash(context.Background(), user)
	if err != nil {
		t.Fatalf("ExpireTrash() error = %v", err)
	}

	if res.BytesFreed != 130 || res.ItemsRemoved != 2 {
		t.Errorf("result = %+v, want 130 bytes / 2 items", res)
	}

	if res.Retention.ItemsRemoved != 0 || res.Quota.ItemsRemoved != 2 {
		t.Errorf("phase split = %+v", res)
	}

	if got := store.deletedNames(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("deleted %v, want [a b]", got)
	}

	if !strings.Contains(logs.String(), "to meet the limit of trash bin size (50% of available quota)") {
		t.Errorf("missing quota reason in logs: %s", logs.String())
	}
}

func TestQuotaPhaseStopsWhenSpaceIsFree(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: 100, Size: 120},
		expiry.TrashItem{Name: "b", MTime: 200, Size: 10},
	)
	m, _ := newManager(t, store, expiry.RetentionDisabled, quotaExceededBy100())

	res, err := m.ExpireTrash(context.Background(), user)
	if err != nil {
		t.Fatalf("ExpireTrash() error = %v", err)
	}

	if res.ItemsRemoved != 1 || res.BytesFreed != 120 {
		t.Errorf("result = %+v, want only a", res)
	}
}

func TestScenarioRetentionOnlyOneExpired(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: daysAgo(20), Size: 40},
		expiry.TrashItem{Name: "b", MTime: daysAgo(2), Size: 80},
	)
	m, logs := newManager(t, store, "auto, 10", fixedQuota{quota: expiry.Quota{Bytes: 1 << 30}})

	res, err := m.ExpireTrash(context.Background(), user)
	if err != nil {
		t.Fatalf("ExpireTrash() error = %v", err)
	}

	if res.BytesFreed != 40 || res.ItemsRemoved != 1 || res.Quota.ItemsRemoved != 0 {
		t.Errorf("result = %+v, want only a by retention", res)
	}

	if !strings.Contains(logs.String(), "exceeds max retention obligation term") {
		t.Errorf("missing retention reason in logs: %s", logs.String())
	}
}

func TestRetentionAloneSatisfiesQuota(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "old", MTime: daysAgo(30), Size: 100},
		expiry.TrashItem{Name: "young", MTime: daysAgo(1), Size: 30},
	)
	m, _ := newManager(t, store, "auto, 10", quotaExceededBy100())

	res, err := m.ExpireTrash(context.Background(), user)
	if err != nil {
		t.Fatalf("ExpireTrash() error = %v", err)
	}

	if res.Retention.ItemsRemoved != 1 || res.Quota.ItemsRemoved != 0 {
		t.Errorf("result = %+v, quota phase should not delete", res)
	}
}

func TestScenarioEmptyTrash(t *testing.T) {
	store := newFakeStore(user)
	m, _ := newManager(t, store, "auto, 1", fixedQuota{quota: expiry.Quota{Bytes: 0}})

	for name, run := range map[string]func(context.Context, string) (expiry.SweepResult, error){
		"retention": m.ExpireTrashByRetention,
		"combined":  m.ExpireTrash,
	} {
		res, err := run(context.Background(), user)
		if err != nil {
			t.Fatalf("%s: error = %v", name, err)
		}

		if res != (expiry.SweepResult{}) {
			t.Errorf("%s: result = %+v, want zero", name, res)
		}
	}

	if len(store.deleteCalls) != 0 {
		t.Errorf("expected no delete calls, got %d", len(store.deleteCalls))
	}
}

func TestScenarioDeleteFailureIsIsolated(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: daysAgo(30), Size: 1},
		expiry.TrashItem{Name: "b", MTime: daysAgo(29), Size: 2},
		expiry.TrashItem{Name: "c", MTime: daysAgo(28), Size: 4},
	)
	store.failOn["b"] = true
	m, logs := newManager(t, store, "auto, 7", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	res, err := m.ExpireTrashByRetention(context.Background(), user)
	if err != nil {
		t.Fatalf("ExpireTrashByRetention() error = %v", err)
	}

	if res.ItemsRemoved != 2 || res.BytesFreed != 5 || res.Failed != 1 {
		t.Errorf("result = %+v, want 2 removed / 5 bytes / 1 failed", res)
	}

	if got := store.deletedNames(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("delete order = %v", got)
	}

	if !strings.Contains(logs.String(), "failed to delete trash item") {
		t.Errorf("failure not logged: %s", logs.String())
	}
}

func TestShortCircuitStopsAtFirstYoungItem(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: daysAgo(30), Size: 1},
		expiry.TrashItem{Name: "b", MTime: daysAgo(3), Size: 1},
		expiry.TrashItem{Name: "c", MTime: daysAgo(2), Size: 1},
	)
	m, _ := newManager(t, store, "auto, 7", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	if _, err := m.ExpireTrashByRetention(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	if got := store.deletedNames(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("deleted %v, want [a]", got)
	}
}

func TestRetentionIsIdempotent(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: daysAgo(30), Size: 10},
		expiry.TrashItem{Name: "b", MTime: daysAgo(1), Size: 10},
	)
	m, _ := newManager(t, store, "auto, 7", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	first, err := m.ExpireTrashByRetention(context.Background(), user)
	if err != nil || first.ItemsRemoved != 1 {
		t.Fatalf("first run = %+v, %v", first, err)
	}

	second, err := m.ExpireTrashByRetention(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	if second != (expiry.SweepResult{}) {
		t.Errorf("second run = %+v, want zero", second)
	}
}

func TestRetentionCutoffProperty(t *testing.T) {
	var items []expiry.TrashItem
	for d := 40; d >= 0; d-- {
		items = append(items, expiry.TrashItem{Name: "f", MTime: daysAgo(d), Size: 1})
	}

	store := newFakeStore(user, items...)
	m, _ := newManager(t, store, "auto, 14", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	res, err := m.ExpireTrashByRetention(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	cutoff, _ := m.Expiration().MaxAgeCutoff()
	for _, c := range store.deleteCalls {
		if c.mtime >= cutoff.Unix() {
			t.Errorf("deleted item at %d not older than cutoff %d", c.mtime, cutoff.Unix())
		}
	}

	// 40..15 天前共 26 个
	if res.ItemsRemoved != 26 {
		t.Errorf("ItemsRemoved = %d, want 26", res.ItemsRemoved)
	}
}

func TestListFailureIsFatal(t *testing.T) {
	store := newFakeStore(user)
	store.listErr = errors.New("no such directory")
	m, _ := newManager(t, store, "auto", fixedQuota{})

	_, err := m.ExpireTrash(context.Background(), user)
	if !errors.Is(err, expiry.ErrListTrash) {
		t.Fatalf("expected ErrListTrash, got %v", err)
	}
}

func TestUnsortedListingRejected(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: daysAgo(30), Size: 1},
		expiry.TrashItem{Name: "b", MTime: daysAgo(20), Size: 1},
	)
	store.unsorted = true
	m, _ := newManager(t, store, "auto, 1", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	_, err := m.ExpireTrashByRetention(context.Background(), user)
	if !errors.Is(err, expiry.ErrUnsortedListing) {
		t.Fatalf("expected ErrUnsortedListing, got %v", err)
	}

	if len(store.deleteCalls) != 0 {
		t.Errorf("expected no deletes, got %v", store.deletedNames())
	}
}

func TestQuotaLookupFailureKeepsRetention(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "old", MTime: daysAgo(30), Size: 10},
		expiry.TrashItem{Name: "young", MTime: daysAgo(1), Size: 10},
	)
	m, _ := newManager(t, store, "auto, 7", fixedQuota{err: errors.New("backend unavailable")})

	res, err := m.ExpireTrash(context.Background(), user)
	if !errors.Is(err, expiry.ErrQuotaLookup) {
		t.Fatalf("expected ErrQuotaLookup, got %v", err)
	}

	if res.Retention.ItemsRemoved != 1 || res.Quota.ItemsRemoved != 0 {
		t.Errorf("result = %+v, want retention only", res)
	}
}

func TestTrashSizeFailureKeepsRetention(t *testing.T) {
	store := newFakeStore(user, expiry.TrashItem{Name: "old", MTime: daysAgo(30), Size: 10})
	store.sizeErr = errors.New("stat failed")
	m, _ := newManager(t, store, "auto, 7", fixedQuota{quota: expiry.Quota{Bytes: 1}})

	res, err := m.ExpireTrash(context.Background(), user)
	if !errors.Is(err, expiry.ErrQuotaLookup) || res.ItemsRemoved != 1 {
		t.Fatalf("ExpireTrash() = %+v, %v", res, err)
	}
}

func TestCancellationBetweenItems(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: daysAgo(30), Size: 1},
		expiry.TrashItem{Name: "b", MTime: daysAgo(29), Size: 1},
		expiry.TrashItem{Name: "c", MTime: daysAgo(28), Size: 1},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store.onDelete = func(deleteCall) { cancel() }
	m, _ := newManager(t, store, "auto, 7", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	res, err := m.ExpireTrashByRetention(ctx, user)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if res.ItemsRemoved != 1 || len(store.deleteCalls) != 1 {
		t.Errorf("result = %+v, calls = %d, want exactly one completed delete", res, len(store.deleteCalls))
	}
}

func TestNotifierReceivesReasons(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "old", MTime: daysAgo(30), Size: 10},
		expiry.TrashItem{Name: "mid", MTime: daysAgo(3), Size: 200},
	)
	n := &recordingNotifier{}
	m, _ := newManager(t, store, "auto, 7", quotaExceededBy100(), expiry.WithNotifier(n))

	if _, err := m.ExpireTrash(context.Background(), user); err != nil {
		t.Fatal(err)
	}

	want := []expiry.Reason{expiry.ReasonRetention, expiry.ReasonQuota}
	if !slices.Equal(n.reasons, want) {
		t.Errorf("reasons = %v, want %v", n.reasons, want)
	}
}

func TestMinAgeProtectsYoungItemsUnderQuotaPressure(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "a", MTime: daysAgo(5), Size: 100},
		expiry.TrashItem{Name: "b", MTime: daysAgo(1), Size: 100},
	)
	m, _ := newManager(t, store, "3, 10", fixedQuota{quota: expiry.Quota{Bytes: 0}})

	res, err := m.ExpireTrash(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	if got := store.deletedNames(); !slices.Equal(got, []string{"a"}) || res.Quota.ItemsRemoved != 1 {
		t.Errorf("deleted %v (%+v), want only a by quota", got, res)
	}
}

func TestFeatureToggles(t *testing.T) {
	tests := []struct {
		obligation string
		expiry     bool
		retention  bool
	}{
		{"auto", true, false},
		{"7, auto", true, false},
		{"3, 10", true, true},
		{"auto, 30", true, true},
		{"disabled", true, false},
	}

	for _, tt := range tests {
		m, _ := newManager(t, newFakeStore(user), tt.obligation, fixedQuota{})

		if m.ExpiryEnabled() != tt.expiry || m.ExpiryByRetentionEnabled() != tt.retention {
			t.Errorf("%q: ExpiryEnabled=%v ExpiryByRetentionEnabled=%v", tt.obligation, m.ExpiryEnabled(), m.ExpiryByRetentionEnabled())
		}
	}
}

func TestContextLoggerCarriesRunID(t *testing.T) {
	store := newFakeStore(user, expiry.TrashItem{Name: "old", MTime: daysAgo(40), Size: 5})
	m, base := newManager(t, store, "auto, 30", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	var buf bytes.Buffer

	runLogger := zerolog.New(&buf).With().Str("run_id", "run-42").Logger()
	ctx := runLogger.WithContext(context.Background())

	if _, err := m.ExpireTrashByRetention(ctx, user); err != nil {
		t.Fatalf("ExpireTrashByRetention() error = %v", err)
	}

	if !strings.Contains(buf.String(), `"run_id":"run-42"`) {
		t.Errorf("context logger not used: %q", buf.String())
	}

	if base.Len() != 0 {
		t.Errorf("manager logger should stay silent, got %q", base.String())
	}
}

func TestUnlimitedQuotaSkipsQuotaPhase(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "old", MTime: daysAgo(30), Size: 100},
		expiry.TrashItem{Name: "young1", MTime: daysAgo(2), Size: 30},
		expiry.TrashItem{Name: "young2", MTime: daysAgo(1), Size: 30},
	)
	m, _ := newManager(t, store, "auto, 10", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	res, err := m.ExpireTrash(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	if res.Quota.ItemsRemoved != 0 || res.Retention.ItemsRemoved != 1 {
		t.Errorf("result = %+v, want only retention removal of old", res)
	}

	if got := store.deletedNames(); !slices.Equal(got, []string{"old"}) {
		t.Errorf("deleted %v, want [old]", got)
	}
}

func TestVanishedItemIsNotAFailure(t *testing.T) {
	store := newFakeStore(user,
		expiry.TrashItem{Name: "gone", MTime: daysAgo(40), Size: 10},
		expiry.TrashItem{Name: "old", MTime: daysAgo(35), Size: 20},
	)
	store.onDelete = func(call deleteCall) {
		if call.name == "old" {
			return
		}

		// 模拟列出之后被其他进程删除
		items := store.items[user]
		store.items[user] = items[1:]
	}
	m, buf := newManager(t, store, "auto, 30", fixedQuota{quota: expiry.Quota{Unlimited: true}})

	res, err := m.ExpireTrashByRetention(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	if res.Failed != 0 || res.ItemsRemoved != 1 || res.BytesFreed != 20 {
		t.Errorf("result = %+v, want 1 removed and no failures", res)
	}

	if !strings.Contains(buf.String(), "trash item already gone") {
		t.Errorf("missing warning in log:\n%s", buf.String())
	}
}
