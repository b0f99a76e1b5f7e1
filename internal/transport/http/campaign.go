package httptransport

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailblast/backend/internal/service"
)

// CampaignHandler 活动投递控制接口
type CampaignHandler struct {
	svc *service.CampaignService
	log *zap.Logger
}

// NewCampaignHandler 创建活动接口处理器
func NewCampaignHandler(svc *service.CampaignService, log *zap.Logger) *CampaignHandler {
	return &CampaignHandler{svc: svc, log: log}
}

// Send POST /v1/campaigns/send
//
// 同步执行活动投递，响应在整个活动结束后返回。想跟进
// 实时进度的客户端应先用同一 jobId 订阅 /v1/campaigns/stream。
func (h *CampaignHandler) Send(c *gin.Context) {
	var input service.SendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.svc.Send(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "活动已完成", result)
}

// jobRequest 暂停/恢复请求体
type jobRequest struct {
	JobID string `json:"jobId"`
}

// resolveJobID 运行标识可以放在请求体或查询参数里
func resolveJobID(c *gin.Context) string {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.JobID != "" {
		return req.JobID
	}
	return c.Query("jobId")
}

// Pause POST /v1/campaigns/pause
func (h *CampaignHandler) Pause(c *gin.Context) {
	jobID := resolveJobID(c)
	if jobID == "" {
		BadRequest(c, MsgMissingJobID)
		return
	}

	if !h.svc.Pause(jobID) {
		NotFound(c, MsgJobNotFound)
		return
	}
	h.log.Info("campaign paused", zap.String("job_id", jobID))
	SuccessWithMsg(c, "已暂停", gin.H{"jobId": jobID, "paused": true})
}

// Resume POST /v1/campaigns/resume
func (h *CampaignHandler) Resume(c *gin.Context) {
	jobID := resolveJobID(c)
	if jobID == "" {
		BadRequest(c, MsgMissingJobID)
		return
	}

	if !h.svc.Resume(jobID) {
		NotFound(c, MsgJobNotFound)
		return
	}
	h.log.Info("campaign resumed", zap.String("job_id", jobID))
	SuccessWithMsg(c, "已恢复", gin.H{"jobId": jobID, "paused": false})
}

// Status GET /v1/campaigns/status?jobId=
func (h *CampaignHandler) Status(c *gin.Context) {
	jobID := c.Query("jobId")
	if jobID == "" {
		BadRequest(c, MsgMissingJobID)
		return
	}
	Success(c, gin.H{"jobId": jobID, "paused": h.svc.Paused(jobID)})
}
