package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/trashbin/pkg/scheduler"
)

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary	调度器任务列表
//	@Tags		调度器
//	@Produce	json
//	@Success	200	{object}	map[string][]scheduler.JobInfo
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs [get]
func (h *Handler) SchedulerJobs(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": h.sched.GetJobInfos()})
}

// SchedulerRunJob 立即触发一次指定任务.
//
//	@Summary	立即运行任务
//	@Tags		调度器
//	@Produce	json
//	@Param		name	path		string	true	"任务名"
//	@Success	202		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Failure	503		{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{name}/run [post]
func (h *Handler) SchedulerRunJob(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return
	}

	name := c.Param("name")

	err := h.sched.RunNow(name)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered", "job": name})
}
