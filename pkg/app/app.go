// Package app 组装回收站清理服务：存储、清理引擎、定时任务、消息消费与运维 HTTP 服务.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/trashbin/pkg/cache"
	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/handle"
	"github.com/yeisme/trashbin/pkg/internal/jobs"
	"github.com/yeisme/trashbin/pkg/internal/router"
	"github.com/yeisme/trashbin/pkg/internal/storage"
	s3c "github.com/yeisme/trashbin/pkg/internal/storage/s3"
	"github.com/yeisme/trashbin/pkg/internal/trash"
	"github.com/yeisme/trashbin/pkg/log"
	"github.com/yeisme/trashbin/pkg/metrics"
	"github.com/yeisme/trashbin/pkg/middleware"
	"github.com/yeisme/trashbin/pkg/scheduler"
	"github.com/yeisme/trashbin/pkg/tracing"
)

const (
	quotaCachePrefix = "trashbin:quota:"
	shutdownTimeout  = 10 * time.Second
)

// App 回收站清理服务.
type App struct {
	Job   *jobs.ExpireTrashJob
	Queue *jobs.ExpiryQueue

	cfg     *configs.AppConfig
	logger  *zerolog.Logger
	storage *storage.Manager
	metrics *metrics.Metrics
	backend trash.Backend
}

// New 初始化追踪、指标、存储并组装清理任务. 调用方负责 Close.
func New(ctx context.Context, cfg *configs.AppConfig) (*App, error) {
	logger := log.Trashbin()

	if err := tracing.InitTracer(ctx, cfg.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	m := metrics.New(cfg.Metrics)

	mgr, err := storage.Init(ctx, cfg, storage.Options{Logger: logger, Registerer: m.Registry()})
	if err != nil {
		_ = tracing.ShutdownTracer(ctx)
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger, storage: mgr, metrics: m}

	quota, err := a.initBackend(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	tb := cfg.Trashbin
	notifier := trash.NewEventNotifier(mgr.MQ.Publisher(), cfg.Events, m, logger)

	manager := expiry.NewManager(a.backend,
		expiry.NewQuotaPolicy(quota, tb.PurgeLimit),
		expiry.NewExpiration(tb.RetentionObligation, nil, logger),
		logger,
		expiry.WithNotifier(notifier),
		expiry.WithTracer(tracing.Tracer()),
	)

	a.Job = jobs.NewExpireTrashJob(jobs.Deps{
		Manager:  manager,
		Users:    a.backend,
		KV:       mgr.KV,
		Locker:   trash.NewLocker(0),
		Notifier: notifier,
		Metrics:  m,
		Quota:    quota,
		Logger:   logger,
	}, tb)

	a.Queue = jobs.NewExpiryQueue(mgr.MQ, a.Job, logger)

	logger.Info().
		Str("backend", string(tb.Backend)).
		Str("retention_obligation", manager.Expiration().Obligation()).
		Int("purge_limit", tb.PurgeLimit).
		Bool("expiry_enabled", manager.ExpiryEnabled()).
		Msg("trash expiry initialized")

	return a, nil
}

// initBackend 按配置选择回收站后端与配额来源.
func (a *App) initBackend(ctx context.Context) (expiry.QuotaSource, error) {
	tb := a.cfg.Trashbin

	var quota expiry.QuotaSource

	switch tb.Backend {
	case configs.TrashBackendFS:
		store := trash.NewOsFSStore(tb.FSRoot)
		a.backend = store
		quota = trash.NewFSQuotaSource(store, tb.DefaultQuota)
	default:
		db := a.storage.DB.DB

		if a.cfg.DB.AutoMigrate {
			if err := trash.Migrate(ctx, db); err != nil {
				return nil, fmt.Errorf("migrate trash tables: %w", err)
			}
		}

		var opts []trash.DBStoreOption

		if a.storage.S3 != nil {
			opts = append(opts,
				trash.WithBlobRemover(a.storage.S3, isObjectNotFound),
				trash.WithGuard(trash.NewGuard(trash.GuardOptions{
					Name:           "s3.remove",
					RPS:            tb.DeleteRPS,
					Burst:          tb.DeleteBurst,
					CircuitBreaker: a.cfg.CircuitBreaker,
					Ignore:         isObjectNotFound,
					Logger:         a.logger,
				})),
			)
		} else {
			a.logger.Warn().Msg("s3 not configured, trash blobs will not be removed")
		}

		a.backend = trash.NewDBStore(db, opts...)
		quota = trash.NewDBQuotaSource(db, tb.DefaultQuota)
	}

	return trash.NewCachedQuotaSource(quota, cache.New(a.storage.KV, quotaCachePrefix), tb.QuotaCacheTTL), nil
}

func isObjectNotFound(err error) bool {
	return errors.Is(err, s3c.ErrObjectNotFound)
}

// Serve 启动定时任务、过期请求消费者与运维 HTTP 服务，直到 ctx 结束或任一组件失败.
func (a *App) Serve(ctx context.Context) error {
	sched, err := scheduler.NewScheduler(a.logger)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(ctx, sched, a.Job, a.cfg.Trashbin.Schedule); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}

	consumer, err := a.Queue.NewRouter()
	if err != nil {
		return fmt.Errorf("init expiry consumer: %w", err)
	}

	sched.Start()

	defer func() {
		if err := sched.Shutdown(); err != nil {
			a.logger.Error().Err(err).Msg("scheduler shutdown")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	// ctx 结束时 Run 关闭 router
	g.Go(func() error {
		return consumer.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		srv := &http.Server{
			Addr:              a.cfg.Server.Addr(),
			Handler:           a.Engine(sched, consumer, ctx.Done()),
			ReadHeaderTimeout: a.cfg.Server.GetTimeoutDuration(),
		}

		g.Go(func() error {
			a.logger.Info().Str("addr", srv.Addr).Msg("ops server listening")

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		})

		g.Go(func() error {
			<-ctx.Done()

			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return srv.Shutdown(sctx)
		})
	}

	return g.Wait()
}

// Engine 构造运维 HTTP 服务的 gin 引擎.
func (a *App) Engine(sched *scheduler.Scheduler, consumer *message.Router, stop <-chan struct{}) *gin.Engine {
	gin.DefaultWriter = log.NewGinWriter(a.logger, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(a.logger, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.CORSMiddleware(a.cfg.Server),
		middleware.TracingMiddleware(),
		middleware.RequestIDMiddleware(a.logger),
		middleware.GinLoggerMiddleware(a.logger),
		middleware.PrometheusMiddleware(a.metrics),
	)

	a.metrics.Mount(engine, a.cfg.Metrics)

	var trigger gin.HandlerFunc
	if a.cfg.Server.TriggerRPS > 0 {
		trigger = middleware.RateLimitMiddleware(a.cfg.Server.TriggerRPS, a.cfg.Server.TriggerBurst, stop)
	}

	h := handle.New(handle.Options{
		Job:       a.Job,
		Queue:     a.Queue,
		Scheduler: sched,
		Checks:    a.checks(consumer),
		Logger:    a.logger,
	})

	router.Register(engine, h, router.Options{
		Trigger:     trigger,
		Swagger:     a.cfg.Server.Debug,
		SwaggerHost: a.cfg.Server.Addr(),
	})

	return engine
}

func (a *App) checks(consumer *message.Router) map[string]handle.Checker {
	checks := map[string]handle.Checker{
		router.ComponentDB: func(ctx context.Context) error {
			return a.storage.DB.Ping(ctx)
		},
		router.ComponentKV: func(ctx context.Context) error {
			_, err := a.storage.KV.Exists(ctx, jobs.OffsetKey)
			return err
		},
		router.ComponentMQ: func(context.Context) error {
			select {
			case <-consumer.Running():
				return nil
			default:
				return errors.New("expiry consumer not running")
			}
		},
	}

	if a.storage.S3 != nil {
		checks[router.ComponentS3] = a.storage.S3.HealthCheck
	}

	return checks
}

// Close 关闭存储资源并刷新追踪数据.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.storage.Close(), tracing.ShutdownTracer(ctx))
}
