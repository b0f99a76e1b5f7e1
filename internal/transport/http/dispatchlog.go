package httptransport

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mailblast/backend/internal/service"
)

// DispatchLogHandler 投递历史查询接口
type DispatchLogHandler struct {
	svc *service.DispatchLogService
}

// NewDispatchLogHandler 创建投递历史接口处理器
func NewDispatchLogHandler(svc *service.DispatchLogService) *DispatchLogHandler {
	return &DispatchLogHandler{svc: svc}
}

// List GET /v1/logs?limit=
func (h *DispatchLogHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))

	logs, err := h.svc.List(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, logs)
}

// Clear DELETE /v1/logs
func (h *DispatchLogHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(); err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "已清空投递历史", nil)
}
