package jobs

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/storage/kv"
	"github.com/yeisme/trashbin/pkg/internal/trash"
	"github.com/yeisme/trashbin/pkg/metrics"
	"github.com/yeisme/trashbin/pkg/queue"
)

// ErrExpiryDisabled 回收站清理未启用.
var ErrExpiryDisabled = errors.New("trash expiry is disabled")

// Deps ExpireTrashJob 的依赖，Manager、Users、KV 必填.
type Deps struct {
	Manager  *expiry.Manager
	Users    trash.UserSource
	KV       kv.Store
	Locker   *trash.Locker
	Notifier *trash.EventNotifier
	Metrics  *metrics.Metrics
	// Quota 为带缓存的配额来源时，每次清理后失效该用户的缓存.
	Quota  expiry.QuotaSource
	Logger *zerolog.Logger
}

// BatchResult 一次批处理会话的统计.
type BatchResult struct {
	RunID        string `json:"run_id"`
	Offset       int    `json:"offset"`
	NextOffset   int    `json:"next_offset"`
	Users        int    `json:"users"`
	Swept        int    `json:"swept"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	BytesFreed   int64  `json:"bytes_freed"`
	ItemsRemoved int    `json:"items_removed"`
}

// ExpireTrashJob 按会话分页遍历用户并清理回收站.
type ExpireTrashJob struct {
	deps    Deps
	cfg     configs.TrashbinConfig
	logger  *zerolog.Logger
	entropy io.Reader
	mu      sync.Mutex
}

// NewExpireTrashJob 创建批处理任务.
func NewExpireTrashJob(deps Deps, cfg configs.TrashbinConfig) *ExpireTrashJob {
	if deps.Locker == nil {
		deps.Locker = trash.NewLocker(0)
	}

	if deps.Logger == nil {
		nop := zerolog.Nop()
		deps.Logger = &nop
	}

	cfg.UsersPerSession = max(cfg.UsersPerSession, 1)
	cfg.Workers = max(cfg.Workers, 1)

	if cfg.Mode == "" {
		cfg.Mode = configs.DefaultExpiryMode
	}

	logger := deps.Logger.With().Str("job", JobTrashExpiry).Logger()

	return &ExpireTrashJob{
		deps:    deps,
		cfg:     cfg,
		logger:  &logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Manager 返回清理引擎.
func (j *ExpireTrashJob) Manager() *expiry.Manager {
	return j.deps.Manager
}

func (j *ExpireTrashJob) newRunID() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), j.entropy).String()
}

// Run 执行一次批处理会话. 未配置按保留期过期时什么也不做.
func (j *ExpireTrashJob) Run(ctx context.Context) (BatchResult, error) {
	result := BatchResult{RunID: j.newRunID()}

	if !j.deps.Manager.ExpiryByRetentionEnabled() {
		j.logger.Debug().Msg("retention based expiry disabled, skip batch")
		return result, nil
	}

	logger := j.logger.With().Str("run_id", result.RunID).Logger()
	ctx = trash.WithRunID(logger.WithContext(ctx), result.RunID)

	offset, err := j.loadOffset(ctx)
	if err != nil {
		return result, err
	}

	result.Offset = offset

	users, err := j.deps.Users.ListUsers(ctx, offset, j.cfg.UsersPerSession)
	if err != nil {
		return result, fmt.Errorf("list users at offset %d: %w", offset, err)
	}

	result.Users = len(users)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	g.SetLimit(j.cfg.Workers)

	for _, user := range users {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			swept, sweep, err := j.visit(ctx, user)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				result.Failed++
			case !swept:
				result.Skipped++
			default:
				result.Swept++
			}

			result.BytesFreed += sweep.BytesFreed
			result.ItemsRemoved += sweep.ItemsRemoved

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Int("offset", offset).Msg("batch interrupted, offset unchanged")
		return result, err
	}

	result.NextOffset = 0
	if len(users) >= j.cfg.UsersPerSession {
		result.NextOffset = offset + len(users)
	}

	if err := j.saveOffset(ctx, result.NextOffset); err != nil {
		return result, err
	}

	logger.Info().
		Int("offset", offset).
		Int("next_offset", result.NextOffset).
		Int("users", result.Users).
		Int("swept", result.Swept).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int64("bytes_freed", result.BytesFreed).
		Int("items_removed", result.ItemsRemoved).
		Msg("trash expiry batch finished")

	return result, nil
}

// visit 清理一个用户，没有回收站的用户跳过.
func (j *ExpireTrashJob) visit(ctx context.Context, user string) (bool, expiry.SweepResult, error) {
	ok, err := j.deps.Users.HasTrash(ctx, user)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user", user).Msg("check trash failed")
		j.countUser("failed")

		return false, expiry.SweepResult{}, err
	}

	if !ok {
		j.countUser("skipped")
		return false, expiry.SweepResult{}, nil
	}

	res, err := j.ExpireUser(ctx, user, j.cfg.Mode)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user", user).Msg("trash expiry failed")
		j.countUser("failed")

		return true, res, err
	}

	j.countUser("swept")

	return true, res, nil
}

func (j *ExpireTrashJob) countUser(result string) {
	if j.deps.Metrics != nil {
		j.deps.Metrics.BatchUsers.WithLabelValues(result).Inc()
	}
}

// ExpireUser 在用户锁内执行一次清理. mode 为 full 时同时按配额清理.
func (j *ExpireTrashJob) ExpireUser(ctx context.Context, user string, mode configs.ExpiryMode) (expiry.SweepResult, error) {
	if !j.deps.Manager.ExpiryEnabled() {
		return expiry.SweepResult{}, ErrExpiryDisabled
	}

	unlock := j.deps.Locker.Lock(user)
	defer unlock()

	if m := j.deps.Metrics; m != nil {
		m.ActiveSweeps.Inc()
		defer m.ActiveSweeps.Dec()
	}

	start := time.Now()

	var (
		res expiry.SweepResult
		err error
	)

	if mode == configs.ExpiryModeFull {
		res, err = j.deps.Manager.ExpireTrash(ctx, user)
	} else {
		res, err = j.deps.Manager.ExpireTrashByRetention(ctx, user)
	}

	elapsed := time.Since(start)

	if j.deps.Metrics != nil {
		j.deps.Metrics.ObserveSweep(string(mode), err, elapsed)
	}

	if cached, ok := j.deps.Quota.(*trash.CachedQuotaSource); ok && !res.Empty() {
		if ierr := cached.Invalidate(ctx, user); ierr != nil {
			zerolog.Ctx(ctx).Warn().Err(ierr).Str("user", user).Msg("invalidate cached quota failed")
		}
	}

	if j.deps.Notifier != nil {
		payload := queue.SweepCompletedPayload{
			User:             user,
			Mode:             string(mode),
			BytesFreed:       res.BytesFreed,
			ItemsRemoved:     res.ItemsRemoved,
			RetentionRemoved: res.Retention.ItemsRemoved,
			QuotaRemoved:     res.Quota.ItemsRemoved,
			Failed:           res.Failed,
			DurationMillis:   elapsed.Milliseconds(),
		}
		if err != nil {
			payload.Error = err.Error()
		}

		j.deps.Notifier.SweepCompleted(ctx, payload)
	}

	return res, err
}

// loadOffset 读取偏移量，不存在或无法解析时从 0 开始.
func (j *ExpireTrashJob) loadOffset(ctx context.Context) (int, error) {
	raw, err := j.deps.KV.Get(ctx, OffsetKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("load %s: %w", OffsetKey, err)
	}

	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		j.logger.Warn().Str("value", string(raw)).Msg("invalid batch offset, restart from 0")
		return 0, nil
	}

	return offset, nil
}

func (j *ExpireTrashJob) saveOffset(ctx context.Context, offset int) error {
	if err := j.deps.KV.Set(ctx, OffsetKey, []byte(strconv.Itoa(offset)), 0); err != nil {
		return fmt.Errorf("save %s: %w", OffsetKey, err)
	}

	return nil
}

// Offset 返回当前保存的偏移量.
func (j *ExpireTrashJob) Offset(ctx context.Context) (int, error) {
	return j.loadOffset(ctx)
}

// ResetOffset 把偏移量重置为 0.
func (j *ExpireTrashJob) ResetOffset(ctx context.Context) error {
	return j.saveOffset(ctx, 0)
}
