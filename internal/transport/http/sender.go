package httptransport

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailblast/backend/internal/service"
)

// SenderHandler 发信账号管理接口
type SenderHandler struct {
	svc *service.SenderService
	log *zap.Logger
}

// NewSenderHandler 创建发信账号接口处理器
func NewSenderHandler(svc *service.SenderService, log *zap.Logger) *SenderHandler {
	return &SenderHandler{svc: svc, log: log}
}

// List GET /v1/senders
func (h *SenderHandler) List(c *gin.Context) {
	senders, err := h.svc.List()
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, senders)
}

// Create POST /v1/senders
//
// 请求体可以是单个账号对象，也可以是账号数组。
func (h *SenderHandler) Create(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	var inputs []service.CreateSenderInput
	if err := json.Unmarshal(raw, &inputs); err != nil {
		var single service.CreateSenderInput
		if err := json.Unmarshal(raw, &single); err != nil {
			BadRequest(c, MsgInvalidRequest)
			return
		}
		inputs = []service.CreateSenderInput{single}
	}

	created, err := h.svc.CreateBatch(inputs)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(created) == 1 {
		Created(c, created[0])
		return
	}
	Created(c, created)
}

// Get GET /v1/senders/:id
func (h *SenderHandler) Get(c *gin.Context) {
	sender, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, sender)
}

// Update PUT /v1/senders/:id
func (h *SenderHandler) Update(c *gin.Context) {
	var input service.UpdateSenderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	sender, err := h.svc.Update(c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, sender)
}

// Delete DELETE /v1/senders/:id
func (h *SenderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	NoContent(c)
}

// Import POST /v1/senders/import
//
// multipart 表单的 file 字段携带 xlsx 文件。
func (h *SenderHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, MsgMissingFile)
		return
	}

	f, err := file.Open()
	if err != nil {
		h.log.Error("open uploaded workbook failed", zap.Error(err))
		InternalError(c, MsgImportReadFailed)
		return
	}
	defer f.Close()

	result, err := h.svc.ImportExcel(f)
	if err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "导入完成", result)
}

// ResetCounts POST /v1/senders/reset-counts
func (h *SenderHandler) ResetCounts(c *gin.Context) {
	if err := h.svc.ResetCounts(); err != nil {
		respondError(c, err)
		return
	}
	SuccessWithMsg(c, "已重置所有账号计数", nil)
}
