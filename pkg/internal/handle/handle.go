// Package handle 提供运维 HTTP 接口的处理器：手动触发清理、调度器管理与健康检查.
package handle

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	tcontext "github.com/yeisme/trashbin/pkg/context"
	"github.com/yeisme/trashbin/pkg/internal/jobs"
	"github.com/yeisme/trashbin/pkg/rule"
	"github.com/yeisme/trashbin/pkg/scheduler"
)

// Checker 检查一个依赖是否可用.
type Checker func(ctx context.Context) error

// Options Handler 的依赖，除 Job 外都可以为 nil.
type Options struct {
	Job       *jobs.ExpireTrashJob
	Queue     *jobs.ExpiryQueue
	Scheduler *scheduler.Scheduler
	Checks    map[string]Checker
	Logger    *zerolog.Logger
}

// Handler 运维接口处理器.
type Handler struct {
	job    *jobs.ExpireTrashJob
	queue  *jobs.ExpiryQueue
	sched  *scheduler.Scheduler
	checks map[string]Checker
	logger *zerolog.Logger
}

// New 创建 Handler.
func New(opts Options) *Handler {
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	return &Handler{
		job:    opts.Job,
		queue:  opts.Queue,
		sched:  opts.Scheduler,
		checks: opts.Checks,
		logger: opts.Logger,
	}
}

func checkUser(c *gin.Context) (string, error) {
	user := strings.TrimSpace(c.Param("user"))

	if err := rule.ValidateVar(user, `required,max=255,excludesall=/\`); err != nil {
		return "", err
	}

	return user, nil
}

func (h *Handler) log(c *gin.Context) *zerolog.Logger {
	return tcontext.Logger(c.Request.Context(), h.logger)
}
