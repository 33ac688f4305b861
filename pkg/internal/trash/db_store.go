package trash

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/model"
)

// BlobRemover 删除对象存储中的文件内容. 对象不存在时返回的错误需能被 IsBlobNotFound 识别.
type BlobRemover interface {
	RemoveBlob(ctx context.Context, bucket, key string) error
}

// DBStore 元数据在数据库、内容在对象存储的回收站.
type DBStore struct {
	db             *gorm.DB
	blobs          BlobRemover
	guard          *Guard
	isBlobNotFound func(error) bool
}

// DBStoreOption 配置 DBStore.
type DBStoreOption func(*DBStore)

// WithBlobRemover 删除条目时同时删除对象存储中的内容，notFound 判断对象已不存在.
func WithBlobRemover(blobs BlobRemover, notFound func(error) bool) DBStoreOption {
	return func(s *DBStore) {
		s.blobs = blobs
		s.isBlobNotFound = notFound
	}
}

// WithGuard 为对象删除设置限速与熔断.
func WithGuard(g *Guard) DBStoreOption {
	return func(s *DBStore) { s.guard = g }
}

// NewDBStore 创建 DBStore.
func NewDBStore(db *gorm.DB, opts ...DBStoreOption) *DBStore {
	s := &DBStore{db: db, guard: NewGuard(GuardOptions{})}
	for _, opt := range opts {
		opt(s)
	}

	if s.isBlobNotFound == nil {
		s.isBlobNotFound = func(error) bool { return false }
	}

	return s
}

// Migrate 创建回收站相关表.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(model.All()...)
}

// ListItems 按 mtime 升序列出，mtime 相同按插入顺序.
func (s *DBStore) ListItems(ctx context.Context, user string) ([]expiry.TrashItem, error) {
	var rows []model.TrashItem

	err := s.db.WithContext(ctx).
		Where("owner = ?", user).
		Order("mtime ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]expiry.TrashItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, expiry.TrashItem{Name: r.Name, MTime: r.MTime, Size: r.Size})
	}

	return items, nil
}

// DeleteItem 先删除对象内容再删除元数据. 对象已不存在视为成功，元数据不存在返回 expiry.ErrItemNotFound.
func (s *DBStore) DeleteItem(ctx context.Context, user, name string, mtime int64) (int64, error) {
	var row model.TrashItem

	err := s.db.WithContext(ctx).
		Where("owner = ? AND name = ? AND mtime = ?", user, name, mtime).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%s.d%d: %w", name, mtime, expiry.ErrItemNotFound)
	}

	if err != nil {
		return 0, err
	}

	if s.blobs != nil && row.ObjectKey != "" {
		err := s.guard.Do(ctx, func() error {
			return s.blobs.RemoveBlob(ctx, row.Bucket, row.ObjectKey)
		})
		if err != nil && !s.isBlobNotFound(err) {
			return 0, fmt.Errorf("remove blob %s: %w", row.ObjectKey, err)
		}
	}

	res := s.db.WithContext(ctx).Delete(&model.TrashItem{}, row.ID)
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%s.d%d: %w", name, mtime, expiry.ErrItemNotFound)
	}

	return row.Size, nil
}

// TrashSize 回收站总大小.
func (s *DBStore) TrashSize(ctx context.Context, user string) (int64, error) {
	var total int64

	err := s.db.WithContext(ctx).
		Model(&model.TrashItem{}).
		Where("owner = ?", user).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error

	return total, err
}

// HasTrash 用户是否有回收站条目.
func (s *DBStore) HasTrash(ctx context.Context, user string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).Model(&model.TrashItem{}).Where("owner = ?", user).Limit(1).Count(&n).Error

	return n > 0, err
}

// ListUsers 按用户名排序分页返回拥有回收站或配额记录的用户.
func (s *DBStore) ListUsers(ctx context.Context, offset, limit int) ([]string, error) {
	var users []string

	err := s.db.WithContext(ctx).Raw(
		"SELECT owner FROM trash_items UNION SELECT owner FROM user_quotas ORDER BY owner LIMIT ? OFFSET ?",
		limit, offset,
	).Scan(&users).Error

	return users, err
}

// Put 写入一个条目，已存在时更新大小与对象位置. 供导入与测试使用.
func (s *DBStore) Put(ctx context.Context, user string, item expiry.TrashItem, bucket, objectKey string) error {
	row := model.TrashItem{
		Owner:     user,
		Name:      item.Name,
		MTime:     item.MTime,
		Size:      item.Size,
		Bucket:    bucket,
		ObjectKey: objectKey,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "name"}, {Name: "mtime"}},
		DoUpdates: clause.AssignmentColumns([]string{"size", "bucket", "object_key"}),
	}).Create(&row).Error
}
