package httptransport

import (
	"github.com/gin-gonic/gin"

	"mailblast/backend/internal/service"
)

// TemplateHandler 邮件模板管理接口
type TemplateHandler struct {
	svc *service.TemplateService
}

// NewTemplateHandler 创建模板接口处理器
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List GET /v1/templates
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.svc.List()
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, templates)
}

// Create POST /v1/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var input service.TemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	template, err := h.svc.Create(input)
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, template)
}

// Get GET /v1/templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.svc.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, template)
}

// Update PUT /v1/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var input service.UpdateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	template, err := h.svc.Update(c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, template)
}

// Delete DELETE /v1/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	NoContent(c)
}
