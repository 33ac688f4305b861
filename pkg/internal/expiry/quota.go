package expiry

import (
	"context"
	"fmt"
	"math"
)

// DefaultPurgeLimit 回收站最多占用可用配额的百分比.
const DefaultPurgeLimit = 50

// QuotaPolicy 根据用户可用配额计算回收站剩余空间.
type QuotaPolicy struct {
	source     QuotaSource
	purgeLimit int
}

// NewQuotaPolicy 创建配额策略，purgeLimit 会被限制在 [0, 100].
func NewQuotaPolicy(source QuotaSource, purgeLimit int) *QuotaPolicy {
	return &QuotaPolicy{source: source, purgeLimit: min(max(purgeLimit, 0), 100)}
}

// PurgeLimit 返回百分比，只用于日志.
func (p *QuotaPolicy) PurgeLimit() int {
	return p.purgeLimit
}

// CalculateFreeSpace 返回回收站剩余可用空间，负数表示需要按配额清理.
// 配额无限时返回 math.MaxInt64.
func (p *QuotaPolicy) CalculateFreeSpace(ctx context.Context, trashSize int64, user string) (int64, error) {
	quota, err := p.source.AvailableQuota(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("%w for %s: %w", ErrQuotaLookup, user, err)
	}

	if quota.Unlimited {
		return math.MaxInt64, nil
	}

	avail := quota.Bytes
	if avail > 0 {
		avail = percentOf(avail, p.purgeLimit)
	}

	return avail - trashSize, nil
}

// percentOf 计算 floor(n * pct / 100)，n 为正数时不会溢出.
func percentOf(n int64, pct int) int64 {
	p := int64(pct)

	return n/100*p + n%100*p/100
}
