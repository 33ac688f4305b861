// Package storage 聚合回收站服务用到的外部资源：数据库、对象存储、KV 与消息队列.
//
// Example:
//
//	mgr, err := storage.Init(ctx, cfg, storage.Options{Logger: logger})
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/configs"
	dbc "github.com/yeisme/trashbin/pkg/internal/storage/db"
	kvc "github.com/yeisme/trashbin/pkg/internal/storage/kv"
	mqc "github.com/yeisme/trashbin/pkg/internal/storage/mq"
	s3c "github.com/yeisme/trashbin/pkg/internal/storage/s3"
)

// Manager 聚合所有存储资源. S3 在未配置 endpoint 时为 nil.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	KV kvc.Store
	MQ *mqc.Client
}

// Options 初始化选项.
type Options struct {
	Logger     *zerolog.Logger
	Registerer prometheus.Registerer
}

// Init 按配置初始化所有存储资源，任一失败时关闭已打开的资源.
func Init(ctx context.Context, cfg *configs.AppConfig, opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	m := &Manager{}

	var err error

	m.DB, err = dbc.New(ctx, cfg.DB, dbc.Options{Metrics: cfg.Metrics.Enabled, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if cfg.S3.Enabled() {
		if m.S3, err = s3c.New(ctx, cfg.S3, logger); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init s3: %w", err)
		}
	}

	if m.KV, err = kvc.New(ctx, cfg.KV); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init kv: %w", err)
	}

	if m.MQ, err = mqc.New(ctx, cfg.MQ, mqc.Options{Logger: logger, Registerer: opts.Registerer}); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	logger.Info().
		Str("db", cfg.DB.GetDBType()).
		Bool("s3", m.S3 != nil).
		Str("kv", string(cfg.KV.Type)).
		Str("mq", string(cfg.MQ.Type)).
		Msg("storage manager initialized")

	return m, nil
}

// Close 关闭所有已打开的资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
