package trash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
)

const filesDir = "files_trashbin/files"

// FSStore 文件系统上的回收站，布局为 <root>/<user>/files_trashbin/files/<name>.d<mtime>.
// 条目可以是文件或目录，目录的大小为其中所有文件之和.
type FSStore struct {
	fs afero.Fs
}

// NewFSStore 在 fsys 上创建回收站存储，通常是 afero.NewBasePathFs(afero.NewOsFs(), root).
func NewFSStore(fsys afero.Fs) *FSStore {
	return &FSStore{fs: fsys}
}

// NewOsFSStore 以 root 为根目录创建本地文件系统存储.
func NewOsFSStore(root string) *FSStore {
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// Fs 返回底层文件系统.
func (s *FSStore) Fs() afero.Fs {
	return s.fs
}

// splitTrashName 把 report.pdf.d1700000000 拆成名称和 mtime.
func splitTrashName(entry string) (string, int64, bool) {
	i := strings.LastIndex(entry, ".d")
	if i <= 0 {
		return "", 0, false
	}

	mtime, err := strconv.ParseInt(entry[i+2:], 10, 64)
	if err != nil || mtime < 0 {
		return "", 0, false
	}

	return entry[:i], mtime, true
}

func (s *FSStore) userFiles(user string) (string, error) {
	if user == "" || user == "." || user == ".." || strings.ContainsAny(user, `/\`) {
		return "", fmt.Errorf("invalid user %q", user)
	}

	return path.Join("/", user, filesDir), nil
}

// ListItems 列出回收站条目，按 mtime 升序，mtime 相同按名称排序. 不符合命名规则的条目被忽略.
// 回收站目录不存在时返回错误，调用方应先用 HasTrash 过滤.
func (s *FSStore) ListItems(ctx context.Context, user string) ([]expiry.TrashItem, error) {
	dir, err := s.userFiles(user)
	if err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, err
	}

	items := make([]expiry.TrashItem, 0, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, mtime, ok := splitTrashName(info.Name())
		if !ok {
			continue
		}

		size := info.Size()
		if info.IsDir() {
			if size, err = s.dirSize(path.Join(dir, info.Name())); err != nil {
				return nil, err
			}
		}

		items = append(items, expiry.TrashItem{Name: name, MTime: mtime, Size: size})
	}

	slices.SortStableFunc(items, func(a, b expiry.TrashItem) int {
		if a.MTime != b.MTime {
			if a.MTime < b.MTime {
				return -1
			}

			return 1
		}

		return strings.Compare(a.Name, b.Name)
	})

	return items, nil
}

func (s *FSStore) dirSize(dir string) (int64, error) {
	var total int64

	err := afero.Walk(s.fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			total += info.Size()
		}

		return nil
	})

	return total, err
}

// DeleteItem 删除条目（文件或整个目录）并返回释放的字节数.
func (s *FSStore) DeleteItem(ctx context.Context, user, name string, mtime int64) (int64, error) {
	dir, err := s.userFiles(user)
	if err != nil {
		return 0, err
	}

	if strings.ContainsAny(name, `/\`) || name == "" || name == "." || name == ".." {
		return 0, fmt.Errorf("invalid trash item name %q", name)
	}

	item := expiry.TrashItem{Name: name, MTime: mtime}
	p := path.Join(dir, item.String())

	info, err := s.fs.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%s: %w", item, expiry.ErrItemNotFound)
	}

	if err != nil {
		return 0, err
	}

	size := info.Size()
	if info.IsDir() {
		if size, err = s.dirSize(p); err != nil {
			return 0, err
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := s.fs.RemoveAll(p); err != nil {
		return 0, err
	}

	return size, nil
}

// TrashSize 回收站 files 目录的总大小.
func (s *FSStore) TrashSize(_ context.Context, user string) (int64, error) {
	dir, err := s.userFiles(user)
	if err != nil {
		return 0, err
	}

	if ok, err := afero.DirExists(s.fs, dir); err != nil || !ok {
		return 0, err
	}

	return s.dirSize(dir)
}

// HasTrash 用户是否有回收站 files 目录.
func (s *FSStore) HasTrash(_ context.Context, user string) (bool, error) {
	dir, err := s.userFiles(user)
	if err != nil {
		return false, err
	}

	return afero.DirExists(s.fs, dir)
}

// ListUsers 按名称排序分页返回根目录下的用户目录.
func (s *FSStore) ListUsers(_ context.Context, offset, limit int) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, "/")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	users := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() && !strings.HasPrefix(info.Name(), ".") {
			users = append(users, info.Name())
		}
	}

	// afero.ReadDir 已按名称排序
	if offset >= len(users) {
		return nil, nil
	}

	return users[offset:min(offset+limit, len(users))], nil
}

// UsedSpace 用户 files 目录（不含回收站）的大小.
func (s *FSStore) UsedSpace(_ context.Context, user string) (int64, error) {
	if _, err := s.userFiles(user); err != nil {
		return 0, err
	}

	dir := path.Join("/", user, "files")
	if ok, err := afero.DirExists(s.fs, dir); err != nil || !ok {
		return 0, err
	}

	return s.dirSize(dir)
}
