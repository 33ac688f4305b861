// Package expiry 实现回收站过期清理的决策引擎：保留期策略、配额策略以及按用户的清理流程.
package expiry

import (
	"context"
	"fmt"
)

// TrashItem 回收站中的一个条目，(Name, MTime) 唯一确定一个条目.
type TrashItem struct {
	Name  string `json:"name"`
	MTime int64  `json:"mtime"` // 放入回收站的时间，unix 秒
	Size  int64  `json:"size"`
}

// String 返回条目在存储中的物理名称，例如 report.pdf.d1700000000.
func (i TrashItem) String() string {
	return fmt.Sprintf("%s.d%d", i.Name, i.MTime)
}

// Quota 用户可用配额，Unlimited 为 true 时 Bytes 无意义.
type Quota struct {
	Bytes     int64
	Unlimited bool
}

// Store 回收站存储.
//
// ListItems 必须按 MTime 升序返回，MTime 相同的条目顺序由实现保证稳定；
// 引擎不会重新排序，乱序视为违反约定并以 ErrUnsortedListing 拒绝.
// DeleteItem 在条目不存在时返回包装了 ErrItemNotFound 的错误.
type Store interface {
	ListItems(ctx context.Context, user string) ([]TrashItem, error)
	DeleteItem(ctx context.Context, user, name string, mtime int64) (int64, error)
	TrashSize(ctx context.Context, user string) (int64, error)
}

// QuotaSource 查询用户的可用配额.
type QuotaSource interface {
	AvailableQuota(ctx context.Context, user string) (Quota, error)
}

// Reason 删除原因.
type Reason string

const (
	ReasonRetention Reason = "retention"
	ReasonQuota     Reason = "quota"
)

// Notifier 在条目被成功删除后收到通知（事件、指标），不影响清理结果.
type Notifier interface {
	ItemPurged(ctx context.Context, user string, item TrashItem, freed int64, reason Reason)
}

// PhaseResult 单个阶段的统计.
type PhaseResult struct {
	BytesFreed   int64 `json:"bytes_freed"`
	ItemsRemoved int   `json:"items_removed"`
}

// SweepResult 一次清理的统计，只计入删除成功的条目.
type SweepResult struct {
	BytesFreed   int64       `json:"bytes_freed"`
	ItemsRemoved int         `json:"items_removed"`
	Retention    PhaseResult `json:"retention"`
	Quota        PhaseResult `json:"quota"`
	Failed       int         `json:"failed"`
}

func (r *SweepResult) add(reason Reason, freed int64) {
	r.BytesFreed += freed
	r.ItemsRemoved++

	switch reason {
	case ReasonRetention:
		r.Retention.BytesFreed += freed
		r.Retention.ItemsRemoved++
	case ReasonQuota:
		r.Quota.BytesFreed += freed
		r.Quota.ItemsRemoved++
	}
}

// Empty 本次清理是否没有删除任何条目.
func (r SweepResult) Empty() bool {
	return r.ItemsRemoved == 0 && r.Failed == 0
}
