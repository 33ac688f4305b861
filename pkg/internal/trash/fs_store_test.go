package trash_test

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/trash"
)

func writeFile(t *testing.T, fsys afero.Fs, name string, size int) {
	t.Helper()

	if err := afero.WriteFile(fsys, name, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newFS(t *testing.T) (*trash.FSStore, afero.Fs) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/alice/files_trashbin/files/b.txt.d200", 20)
	writeFile(t, fsys, "/alice/files_trashbin/files/a.txt.d100", 10)
	writeFile(t, fsys, "/alice/files_trashbin/files/c.txt.d100", 5)
	writeFile(t, fsys, "/alice/files_trashbin/files/docs.d150/x.md", 7)
	writeFile(t, fsys, "/alice/files_trashbin/files/docs.d150/sub/y.md", 3)
	writeFile(t, fsys, "/alice/files_trashbin/files/garbage", 99)
	writeFile(t, fsys, "/alice/files/report.pdf", 400)
	writeFile(t, fsys, "/bob/files/notes.txt", 1)

	return trash.NewFSStore(fsys), fsys
}

func TestFSStoreListItemsSorted(t *testing.T) {
	store, _ := newFS(t)

	items, err := store.ListItems(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	want := []expiry.TrashItem{
		{Name: "a.txt", MTime: 100, Size: 10},
		{Name: "c.txt", MTime: 100, Size: 5},
		{Name: "docs", MTime: 150, Size: 10},
		{Name: "b.txt", MTime: 200, Size: 20},
	}
	if !slices.Equal(items, want) {
		t.Errorf("items = %+v\nwant %+v", items, want)
	}
}

func TestFSStoreMissingTrash(t *testing.T) {
	store, _ := newFS(t)
	ctx := context.Background()

	if _, err := store.ListItems(ctx, "bob"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ListItems(bob) error = %v, want fs.ErrNotExist", err)
	}

	size, err := store.TrashSize(ctx, "bob")
	if err != nil || size != 0 {
		t.Errorf("TrashSize(bob) = %d, %v", size, err)
	}

	if ok, _ := store.HasTrash(ctx, "bob"); ok {
		t.Error("bob should have no trash")
	}

	if ok, _ := store.HasTrash(ctx, "alice"); !ok {
		t.Error("alice should have trash")
	}
}

func TestFSStoreDeleteItem(t *testing.T) {
	store, fsys := newFS(t)
	ctx := context.Background()

	freed, err := store.DeleteItem(ctx, "alice", "docs", 150)
	if err != nil || freed != 10 {
		t.Fatalf("DeleteItem(docs) = %d, %v", freed, err)
	}

	if ok, _ := afero.Exists(fsys, "/alice/files_trashbin/files/docs.d150"); ok {
		t.Error("directory still present")
	}

	_, err = store.DeleteItem(ctx, "alice", "docs", 150)
	if !errors.Is(err, expiry.ErrItemNotFound) {
		t.Errorf("second delete = %v, want ErrItemNotFound", err)
	}

	size, err := store.TrashSize(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}

	// 10 + 5 + 20 + 99 (garbage 也占空间)
	if size != 134 {
		t.Errorf("TrashSize = %d, want 134", size)
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	store, _ := newFS(t)
	ctx := context.Background()

	if _, err := store.ListItems(ctx, "../alice"); err == nil {
		t.Error("user with separator accepted")
	}

	if _, err := store.DeleteItem(ctx, "alice", "../../bob/files/notes.txt", 1); err == nil {
		t.Error("item name with separator accepted")
	}
}

func TestFSStoreListUsersPaged(t *testing.T) {
	store, fsys := newFS(t)
	writeFile(t, fsys, "/carol/files_trashbin/files/z.d1", 1)

	ctx := context.Background()

	page, err := store.ListUsers(ctx, 0, 2)
	if err != nil || !slices.Equal(page, []string{"alice", "bob"}) {
		t.Errorf("page 1 = %v, %v", page, err)
	}

	page, err = store.ListUsers(ctx, 2, 2)
	if err != nil || !slices.Equal(page, []string{"carol"}) {
		t.Errorf("page 2 = %v, %v", page, err)
	}

	page, err = store.ListUsers(ctx, 4, 2)
	if err != nil || len(page) != 0 {
		t.Errorf("page 3 = %v, %v", page, err)
	}
}

func TestFSStoreWithManager(t *testing.T) {
	store, _ := newFS(t)

	quota := trash.NewFSQuotaSource(store, "500 B")
	m := expiry.NewManager(store, expiry.NewQuotaPolicy(quota, 50), expiry.NewExpiration("disabled", nil, nil), nil)

	// 可用 500-400=100，一半为 50；回收站 134，需要释放 84.
	// 不符合命名规则的 garbage 无法删除，所以所有条目都会被删除.
	res, err := m.ExpireTrash(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if res.Quota.BytesFreed != 45 || res.Quota.ItemsRemoved != 4 {
		t.Errorf("quota phase = %+v, want 45 bytes / 4 items", res.Quota)
	}

	items, err := store.ListItems(context.Background(), "alice")
	if err != nil || len(items) != 0 {
		t.Errorf("remaining = %v, %v", items, err)
	}
}

func TestFSStoreMissingTrashFailsExpiry(t *testing.T) {
	store := trash.NewFSStore(afero.NewMemMapFs())
	quota := trash.NewFSQuotaSource(store, "none")
	m := expiry.NewManager(store, expiry.NewQuotaPolicy(quota, 50), expiry.NewExpiration("auto, 30", nil, nil), nil)

	res, err := m.ExpireTrashByRetention(context.Background(), "ghost")
	if !errors.Is(err, expiry.ErrListTrash) {
		t.Fatalf("ExpireTrashByRetention(ghost) error = %v, want ErrListTrash", err)
	}

	if !res.Empty() {
		t.Errorf("result = %+v, want empty", res)
	}

	if _, err := m.ExpireTrash(context.Background(), "ghost"); !errors.Is(err, expiry.ErrListTrash) {
		t.Errorf("ExpireTrash(ghost) error = %v, want ErrListTrash", err)
	}
}
