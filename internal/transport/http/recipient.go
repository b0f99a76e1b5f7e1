package httptransport

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/service"
)

// RecipientHandler 收件人管理接口
type RecipientHandler struct {
	svc *service.RecipientService
	log *zap.Logger
}

// NewRecipientHandler 创建收件人接口处理器
func NewRecipientHandler(svc *service.RecipientService, log *zap.Logger) *RecipientHandler {
	return &RecipientHandler{svc: svc, log: log}
}

// List GET /v1/recipients?status=&page=&pageSize=
func (h *RecipientHandler) List(c *gin.Context) {
	var status *domain.RecipientStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.RecipientStatus(raw)
		status = &s
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	recipients, total, err := h.svc.List(status, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{
		"items":    recipients,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Create POST /v1/recipients
func (h *RecipientHandler) Create(c *gin.Context) {
	var input service.RecipientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	recipient, err := h.svc.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, recipient)
}

// Update PUT /v1/recipients/:id
func (h *RecipientHandler) Update(c *gin.Context) {
	var input service.UpdateRecipientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	recipient, err := h.svc.Update(c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, recipient)
}

// Delete DELETE /v1/recipients/:id
func (h *RecipientHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	NoContent(c)
}

// Clear DELETE /v1/recipients
func (h *RecipientHandler) Clear(c *gin.Context) {
	if err := h.svc.Clear(); err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "已清空收件人名单", nil)
}

// ResetStatuses POST /v1/recipients/reset-status
func (h *RecipientHandler) ResetStatuses(c *gin.Context) {
	if err := h.svc.ResetStatuses(); err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "已重置所有收件人状态", nil)
}

// ImportCSV POST /v1/recipients/import-csv
//
// multipart 表单的 file 字段携带 csv 文件。
func (h *RecipientHandler) ImportCSV(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, MsgMissingFile)
		return
	}

	f, err := file.Open()
	if err != nil {
		h.log.Error("open uploaded csv failed", zap.Error(err))
		InternalError(c, MsgImportReadFailed)
		return
	}
	defer f.Close()

	result, err := h.svc.ImportCSV(f)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "导入完成", result)
}

// ImportJSON POST /v1/recipients/import-json
func (h *RecipientHandler) ImportJSON(c *gin.Context) {
	var inputs []service.RecipientInput
	if err := c.ShouldBindJSON(&inputs); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	result, err := h.svc.ImportJSON(inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "导入完成", result)
}
