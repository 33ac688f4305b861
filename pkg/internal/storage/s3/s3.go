// Package s3 管理存放回收站文件内容的对象存储连接.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/yeisme/trashbin/pkg/configs"
)

// ErrObjectNotFound 对象不存在.
var ErrObjectNotFound = errors.New("object not found")

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client
	bucket string
}

// New 初始化 MinIO 客户端并确认默认 bucket 存在.
func New(ctx context.Context, cfg configs.S3Config, logger *zerolog.Logger) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许带 scheme 的 endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("trashbin", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.Bucket}, nil
}

// Bucket 默认 bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// RemoveBlob 删除对象，bucket 为空时使用默认 bucket.
// 对象不存在时返回包装了 ErrObjectNotFound 的错误.
func (c *Client) RemoveBlob(ctx context.Context, bucket, key string) error {
	if bucket == "" {
		bucket = c.bucket
	}

	if _, err := c.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
		}

		return fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}

	if err := c.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s/%s: %w", bucket, key, err)
	}

	return nil
}

// HealthCheck 检查默认 bucket 是否可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.bucket)

	return err
}
