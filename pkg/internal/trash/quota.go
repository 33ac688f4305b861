package trash

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gorm.io/gorm"

	"github.com/yeisme/trashbin/pkg/cache"
	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/model"
)

const (
	QuotaNone    = "none"
	QuotaDefault = "default"
)

// ParseQuota 解析可读的配额字符串. 空字符串和 "none" 表示不限.
func ParseQuota(s string) (total int64, unlimited bool, err error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == QuotaNone {
		return 0, true, nil
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, false, fmt.Errorf("invalid quota %q: %w", s, err)
	}

	if n > math.MaxInt64 {
		return 0, true, nil
	}

	return int64(n), false, nil
}

func available(total int64, unlimited bool, used int64) expiry.Quota {
	if unlimited {
		return expiry.Quota{Unlimited: true}
	}

	return expiry.Quota{Bytes: total - used}
}

// DBQuotaSource 从 user_quotas 表读取配额，没有记录的用户使用默认配额且已用为 0.
type DBQuotaSource struct {
	db           *gorm.DB
	defaultQuota string
}

// NewDBQuotaSource 创建数据库配额来源.
func NewDBQuotaSource(db *gorm.DB, defaultQuota string) *DBQuotaSource {
	return &DBQuotaSource{db: db, defaultQuota: defaultQuota}
}

// AvailableQuota 返回配额减去已用空间，可能为负数.
func (s *DBQuotaSource) AvailableQuota(ctx context.Context, user string) (expiry.Quota, error) {
	var row model.UserQuota

	err := s.db.WithContext(ctx).Where("owner = ?", user).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = model.UserQuota{Owner: user, Quota: QuotaDefault}
	} else if err != nil {
		return expiry.Quota{}, err
	}

	quota := row.Quota
	if strings.EqualFold(strings.TrimSpace(quota), QuotaDefault) {
		quota = s.defaultQuota
	}

	total, unlimited, err := ParseQuota(quota)
	if err != nil {
		return expiry.Quota{}, err
	}

	return available(total, unlimited, row.Used), nil
}

// SetQuota 设置用户配额与已用空间.
func (s *DBQuotaSource) SetQuota(ctx context.Context, user, quota string, used int64) error {
	if quota != QuotaDefault {
		if _, _, err := ParseQuota(quota); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Save(&model.UserQuota{Owner: user, Quota: quota, Used: used}).Error
}

// FSQuotaSource 所有用户使用同一个默认配额，已用空间为用户 files 目录的大小.
type FSQuotaSource struct {
	store        *FSStore
	defaultQuota string
}

// NewFSQuotaSource 创建文件系统配额来源.
func NewFSQuotaSource(store *FSStore, defaultQuota string) *FSQuotaSource {
	return &FSQuotaSource{store: store, defaultQuota: defaultQuota}
}

func (s *FSQuotaSource) AvailableQuota(ctx context.Context, user string) (expiry.Quota, error) {
	total, unlimited, err := ParseQuota(s.defaultQuota)
	if err != nil {
		return expiry.Quota{}, err
	}

	if unlimited {
		return expiry.Quota{Unlimited: true}, nil
	}

	used, err := s.store.UsedSpace(ctx, user)
	if err != nil {
		return expiry.Quota{}, err
	}

	return available(total, false, used), nil
}

// CachedQuotaSource 在 KV 中缓存配额查询结果.
type CachedQuotaSource struct {
	next  expiry.QuotaSource
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedQuotaSource ttl 不大于 0 时直接返回 next.
func NewCachedQuotaSource(next expiry.QuotaSource, c *cache.Cache, ttl time.Duration) expiry.QuotaSource {
	if ttl <= 0 || c == nil {
		return next
	}

	return &CachedQuotaSource{next: next, cache: c, ttl: ttl}
}

func (s *CachedQuotaSource) AvailableQuota(ctx context.Context, user string) (expiry.Quota, error) {
	return cache.GetOrSet(ctx, s.cache, user, func() (expiry.Quota, error) {
		return s.next.AvailableQuota(ctx, user)
	}, s.ttl)
}

// Invalidate 删除用户的缓存配额，清理完成后调用.
func (s *CachedQuotaSource) Invalidate(ctx context.Context, user string) error {
	return s.cache.Delete(ctx, user)
}
