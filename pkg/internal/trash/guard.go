// Package trash 实现回收站存储（数据库 + 对象存储，或本地文件系统）、用户配额来源
// 以及批处理需要的用户枚举与按用户互斥.
package trash

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/yeisme/trashbin/pkg/configs"
)

// Guard 为物理删除限速并在后端持续失败时熔断.
type Guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// GuardOptions Guard 配置.
type GuardOptions struct {
	Name           string
	RPS            float64 // <= 0 表示不限速
	Burst          int
	CircuitBreaker configs.CircuitBreakerConfig
	// Ignore 返回 true 的错误不计入熔断失败，例如对象已不存在.
	Ignore func(error) bool
	Logger *zerolog.Logger
}

// NewGuard 创建 Guard.
func NewGuard(opts GuardOptions) *Guard {
	g := &Guard{limiter: rate.NewLimiter(rate.Inf, 1)}

	if opts.RPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(opts.Burst, 1))
	}

	cb := opts.CircuitBreaker
	if !cb.Enabled {
		return g
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: cb.MaxRequestsInHalf,
		Interval:    cb.Interval(),
		Timeout:     cb.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cb.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cb.FailureRate
		},
		IsSuccessful: func(err error) bool {
			return err == nil || (opts.Ignore != nil && opts.Ignore(err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if opts.Logger != nil {
				opts.Logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
			}
		},
	})

	return g
}

// Do 等待限速令牌后在熔断器保护下执行 fn. 熔断打开时返回 gobreaker.ErrOpenState.
func (g *Guard) Do(ctx context.Context, fn func() error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	if g.breaker == nil {
		return fn()
	}

	_, err := g.breaker.Execute(func() (any, error) {
		return nil, fn()
	})

	return err
}

// Open 熔断器是否处于打开状态.
func (g *Guard) Open() bool {
	return g.breaker != nil && g.breaker.State() == gobreaker.StateOpen
}

// IsRejected 错误是否来自熔断器拒绝.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
