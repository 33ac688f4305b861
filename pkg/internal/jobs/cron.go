// Package jobs 实现回收站的批量过期任务、定时注册以及按用户过期请求的消费.
package jobs

import (
	"context"
	"errors"

	"github.com/yeisme/trashbin/pkg/scheduler"
)

// RegisterCronJobs 按 schedule 注册回收站批处理任务.
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, job *ExpireTrashJob, schedule string) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if job == nil {
		return errors.New("expire trash job is nil")
	}

	return sched.AddCron(ctx, JobTrashExpiry, schedule, func(ctx context.Context) error {
		_, err := job.Run(ctx)
		return err
	})
}
