package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/trashbin/pkg/configs"
	"github.com/yeisme/trashbin/pkg/internal/expiry"
	"github.com/yeisme/trashbin/pkg/internal/jobs"
)

// ExpiryResponse 单个用户清理的响应.
type ExpiryResponse struct {
	User   string             `json:"user"`
	Mode   configs.ExpiryMode `json:"mode"`
	Result expiry.SweepResult `json:"result"`
	Error  string             `json:"error,omitempty"`
}

// ExpiryStatus 当前清理配置与批处理进度.
type ExpiryStatus struct {
	Obligation       string `json:"retention_obligation"`
	ExpiryEnabled    bool   `json:"expiry_enabled"`
	RetentionEnabled bool   `json:"retention_enabled"`
	BatchOffset      int    `json:"batch_offset"`
}

// ExpireUser 同步执行一个用户的清理. ?mode=retention|full，默认 full.
//
//	@Summary		清理用户回收站
//	@Description	同步执行保留期清理，mode=full 时仍超出配额再按紧急模式清理
//	@Tags			回收站
//	@Produce		json
//	@Param			user	path		string	true	"用户 ID"
//	@Param			mode	query		string	false	"retention 或 full"	Enums(retention, full)
//	@Success		200		{object}	ExpiryResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Failure		429		{object}	map[string]string
//	@Failure		500		{object}	ExpiryResponse
//	@Router			/api/v1/trash/expiry/{user} [post]
func (h *Handler) ExpireUser(c *gin.Context) {
	user, err := checkUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user"})
		return
	}

	mode := configs.ExpiryMode(c.DefaultQuery("mode", string(configs.ExpiryModeFull)))
	if mode != configs.ExpiryModeFull && mode != configs.ExpiryModeRetention {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be retention or full"})
		return
	}

	res, err := h.job.ExpireUser(c.Request.Context(), user, mode)
	resp := ExpiryResponse{User: user, Mode: mode, Result: res}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, jobs.ErrExpiryDisabled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, expiry.ErrQuotaLookup):
		// 保留期阶段已完成
		resp.Error = err.Error()
		c.JSON(http.StatusOK, resp)
	default:
		h.log(c).Error().Err(err).Str("user", user).Msg("manual trash expiry failed")

		resp.Error = err.Error()
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// ScheduleExpiry 异步请求清理一个用户.
//
//	@Summary	异步清理用户回收站
//	@Tags		回收站
//	@Produce	json
//	@Param		user	path		string	true	"用户 ID"
//	@Success	202		{object}	map[string]any
//	@Failure	400		{object}	map[string]string
//	@Failure	500		{object}	map[string]string
//	@Failure	503		{object}	map[string]string
//	@Router		/api/v1/trash/expiry/{user}/schedule [post]
func (h *Handler) ScheduleExpiry(c *gin.Context) {
	user, err := checkUser(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user"})
		return
	}

	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "message queue not configured"})
		return
	}

	scheduled, err := h.queue.ScheduleExpiry(c.Request.Context(), user)
	if err != nil {
		h.log(c).Error().Err(err).Str("user", user).Msg("schedule trash expiry failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusAccepted, gin.H{"user": user, "scheduled": scheduled})
}

// Status 返回清理配置与批处理偏移量.
//
//	@Summary	清理状态
//	@Tags		回收站
//	@Produce	json
//	@Success	200	{object}	ExpiryStatus
//	@Failure	500	{object}	map[string]string
//	@Router		/api/v1/trash/expiry [get]
func (h *Handler) Status(c *gin.Context) {
	m := h.job.Manager()

	offset, err := h.job.Offset(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ExpiryStatus{
		Obligation:       m.Expiration().Obligation(),
		ExpiryEnabled:    m.ExpiryEnabled(),
		RetentionEnabled: m.ExpiryByRetentionEnabled(),
		BatchOffset:      offset,
	})
}

// ResetBatchOffset 把批处理偏移量重置为 0.
//
//	@Summary	重置批处理偏移量
//	@Tags		回收站
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Failure	500	{object}	map[string]string
//	@Router		/api/v1/trash/expiry/offset [delete]
func (h *Handler) ResetBatchOffset(c *gin.Context) {
	if err := h.job.ResetOffset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"batch_offset": 0})
}
