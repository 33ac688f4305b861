package trash

import (
	"context"

	"github.com/yeisme/trashbin/pkg/internal/expiry"
)

// UserSource 批处理用的用户枚举.
type UserSource interface {
	// ListUsers 按稳定顺序分页返回用户.
	ListUsers(ctx context.Context, offset, limit int) ([]string, error)
	// HasTrash 用户是否有回收站，没有的用户会被跳过.
	HasTrash(ctx context.Context, user string) (bool, error)
}

// Backend 一个完整的回收站后端.
type Backend interface {
	expiry.Store
	UserSource
}

var (
	_ Backend = (*DBStore)(nil)
	_ Backend = (*FSStore)(nil)
)

type runIDKey struct{}

// WithRunID 在 ctx 中记录本次清理的 run_id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID 返回 ctx 中的 run_id，没有时为空.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
