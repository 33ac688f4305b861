package expiry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/yeisme/trashbin/pkg/internal/expiry"

// Manager 按用户执行回收站清理.
// 同一用户同时只能有一次清理，由调用方保证.
type Manager struct {
	store      Store
	quota      *QuotaPolicy
	expiration *Expiration
	logger     *zerolog.Logger
	notifier   Notifier
	tracer     trace.Tracer
}

// Option 配置 Manager.
type Option func(*Manager)

// WithNotifier 设置删除通知.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithTracer 设置 tracer，默认使用全局 TracerProvider.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// NewManager 创建 Manager，所有依赖都需要显式传入.
func NewManager(store Store, quota *QuotaPolicy, expiration *Expiration, logger *zerolog.Logger, opts ...Option) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	m := &Manager{
		store:      store,
		quota:      quota,
		expiration: expiration,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}

	return m
}

// Expiration 返回保留期策略.
func (m *Manager) Expiration() *Expiration {
	return m.expiration
}

// ExpiryEnabled 是否需要清理（按时间或按配额）.
func (m *Manager) ExpiryEnabled() bool {
	return m.expiration.IsEnabled() || m.expiration.CanPurgeToSaveSpace()
}

// ExpiryByRetentionEnabled 是否配置了最长保留期. auto 没有最长保留期，返回 false.
func (m *Manager) ExpiryByRetentionEnabled() bool {
	_, ok := m.expiration.MaxAgeCutoff()
	return ok
}

// ExpireTrashByRetention 删除超过最长保留期的条目.
func (m *Manager) ExpireTrashByRetention(ctx context.Context, user string) (SweepResult, error) {
	ctx, span := m.tracer.Start(ctx, "expiry.ExpireTrashByRetention",
		trace.WithAttributes(attribute.String("trash.user", user)))
	defer span.End()

	var result SweepResult

	items, err := m.list(ctx, user)
	if err != nil {
		return result, m.fail(span, err)
	}

	plan, _ := m.plan(items, false)
	err = m.execute(ctx, user, plan, ReasonRetention, &result, nil)
	m.annotate(span, result)

	return result, m.fail(span, err)
}

// ExpireTrash 先按保留期删除，仍超出配额时按紧急模式继续删除最旧的条目.
// 配额查询失败时保留期阶段照常执行，返回的错误包装 ErrQuotaLookup.
func (m *Manager) ExpireTrash(ctx context.Context, user string) (SweepResult, error) {
	ctx, span := m.tracer.Start(ctx, "expiry.ExpireTrash",
		trace.WithAttributes(attribute.String("trash.user", user)))
	defer span.End()

	var result SweepResult

	items, err := m.list(ctx, user)
	if err != nil {
		return result, m.fail(span, err)
	}

	quotaErr := error(nil)
	free := int64(0)

	trashSize, err := m.store.TrashSize(ctx, user)
	if err != nil {
		quotaErr = fmt.Errorf("%w: trash size for %s: %w", ErrQuotaLookup, user, err)
	} else if free, err = m.quota.CalculateFreeSpace(ctx, trashSize, user); err != nil {
		quotaErr = err
	}

	plan, next := m.plan(items, false)
	if err := m.execute(ctx, user, plan, ReasonRetention, &result, &free); err != nil {
		m.annotate(span, result)
		return result, m.fail(span, err)
	}

	if quotaErr != nil {
		m.log(ctx).Warn().Err(quotaErr).Str("user", user).Msg("skip quota based expiry")
		m.annotate(span, result)

		return result, m.fail(span, quotaErr)
	}

	if free < 0 {
		plan, _ = m.plan(items[next:], true)
		err = m.execute(ctx, user, plan, ReasonQuota, &result, &free)
	}

	m.annotate(span, result)

	return result, m.fail(span, err)
}

func (m *Manager) list(ctx context.Context, user string) ([]TrashItem, error) {
	items, err := m.store.ListItems(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrListTrash, user, err)
	}

	if !slices.IsSortedFunc(items, func(a, b TrashItem) int { return cmp.Compare(a.MTime, b.MTime) }) {
		return nil, fmt.Errorf("%w: user %s", ErrUnsortedListing, user)
	}

	return items, nil
}

// plan 从最旧的条目开始扫描，遇到第一个未过期的条目即停止.
// 返回待删除的条目以及停止位置.
func (m *Manager) plan(items []TrashItem, quotaExceeded bool) ([]TrashItem, int) {
	for i, item := range items {
		if !m.expiration.IsExpired(item.MTime, quotaExceeded) {
			return items[:i], i
		}
	}

	return items, len(items)
}

// execute 按顺序删除计划中的条目，单个失败不会中断，只在条目之间检查取消.
// free 不为 nil 时用实际释放的字节数更新剩余空间；配额阶段在剩余空间不再为负时提前结束.
func (m *Manager) execute(ctx context.Context, user string, plan []TrashItem, reason Reason, result *SweepResult, free *int64) error {
	for _, item := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}

		if reason == ReasonQuota && free != nil && *free >= 0 {
			return nil
		}

		freed, err := m.store.DeleteItem(ctx, user, item.Name, item.MTime)
		if errors.Is(err, ErrItemNotFound) {
			m.log(ctx).Warn().Err(err).
				Str("user", user).
				Str("name", item.Name).
				Int64("mtime", item.MTime).
				Msg("trash item already gone")

			continue
		}

		if err != nil {
			result.Failed++

			m.log(ctx).Error().Err(err).
				Str("user", user).
				Str("name", item.Name).
				Int64("mtime", item.MTime).
				Str("reason", string(reason)).
				Msg("failed to delete trash item")

			continue
		}

		result.add(reason, freed)

		if free != nil {
			*free = addFree(*free, freed)
		}

		m.log(ctx).Info().
			Str("user", user).
			Str("name", item.Name).
			Int64("mtime", item.MTime).
			Int64("size", freed).
			Str("reason", string(reason)).
			Msg(m.describe(item, reason))

		if m.notifier != nil {
			m.notifier.ItemPurged(ctx, user, item, freed, reason)
		}
	}

	return nil
}

// addFree 饱和加法，无限配额对应的 math.MaxInt64 不会溢出成负数.
func addFree(free, freed int64) int64 {
	if freed > 0 && free > math.MaxInt64-freed {
		return math.MaxInt64
	}

	return free + freed
}

// log 优先使用 ctx 中携带的 logger（例如带 run_id 的批处理 logger）.
func (m *Manager) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}

	return m.logger
}

func (m *Manager) describe(item TrashItem, reason Reason) string {
	if reason == ReasonQuota {
		return fmt.Sprintf("remove %q from trash bin to meet the limit of trash bin size (%d%% of available quota)",
			item.Name, m.quota.PurgeLimit())
	}

	return fmt.Sprintf("remove %q from trash bin because it exceeds max retention obligation term", item.Name)
}

func (m *Manager) annotate(span trace.Span, result SweepResult) {
	span.SetAttributes(
		attribute.Int64("trash.bytes_freed", result.BytesFreed),
		attribute.Int("trash.items_removed", result.ItemsRemoved),
		attribute.Int("trash.items_failed", result.Failed),
	)
}

func (m *Manager) fail(span trace.Span, err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}
