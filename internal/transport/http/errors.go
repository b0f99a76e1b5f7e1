package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"

	"mailblast/backend/internal/dispatch"
	"mailblast/backend/internal/domain"
	"mailblast/backend/internal/service"
	"mailblast/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// 发信账号错误
	storage.ErrSenderNotFound:      "发信账号不存在",
	storage.ErrSenderExists:        "发信账号邮箱已存在",
	service.ErrSenderEmailRequired: "发信账号邮箱不能为空",

	// 收件人错误
	storage.ErrRecipientNotFound: "收件人不存在",
	service.ErrInvalidStatus:     "收件人状态无效",

	// 模板错误
	storage.ErrTemplateNotFound:     "模板不存在",
	storage.ErrTemplateExists:       "模板名称已存在",
	service.ErrTemplateNameRequired: "模板名称不能为空",

	// 校验错误
	domain.ErrInvalidEmail: "邮箱格式无效",
	domain.ErrEmailTooLong: "邮箱地址过长",
	domain.ErrInvalidPort:  "SMTP 端口无效",
	domain.ErrEmptySubject: "邮件主题不能为空",
	domain.ErrEmptyBody:    "邮件正文不能为空",

	// 活动错误
	dispatch.ErrNoActiveSenders:     "没有可用的发信账号",
	dispatch.ErrNoPendingRecipients: "没有待发送的收件人",
	dispatch.ErrNoTemplates:         "没有可用的邮件模板",
	service.ErrNoTemplateSelected:   "请至少选择一个模板",

	// 导入错误
	service.ErrEmptyImportFile: "导入文件中没有有效数据",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	for known, msg := range errorMessages {
		if errors.Is(err, known) {
			return msg
		}
	}
	return err.Error()
}

// respondError 根据错误类型选择响应状态码
func respondError(c *gin.Context, err error) {
	msg := GetErrorMessage(err)
	switch {
	case errors.Is(err, storage.ErrSenderNotFound),
		errors.Is(err, storage.ErrRecipientNotFound),
		errors.Is(err, storage.ErrTemplateNotFound):
		NotFound(c, msg)
	case errors.Is(err, storage.ErrSenderExists),
		errors.Is(err, storage.ErrTemplateExists):
		Conflict(c, msg)
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmailTooLong),
		errors.Is(err, domain.ErrInvalidPort),
		errors.Is(err, domain.ErrEmptySubject),
		errors.Is(err, domain.ErrEmptyBody),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrSenderEmailRequired),
		errors.Is(err, service.ErrTemplateNameRequired),
		errors.Is(err, service.ErrNoTemplateSelected),
		errors.Is(err, service.ErrEmptyImportFile):
		BadRequest(c, msg)
	case errors.Is(err, dispatch.ErrNoActiveSenders),
		errors.Is(err, dispatch.ErrNoPendingRecipients),
		errors.Is(err, dispatch.ErrNoTemplates):
		UnprocessableEntity(c, msg)
	default:
		InternalError(c, msg)
	}
}

// 通用错误消息
const (
	MsgInvalidRequest   = "请求参数格式错误"
	MsgMissingFile      = "缺少上传文件"
	MsgMissingJobID     = "缺少 jobId 参数"
	MsgJobNotFound      = "指定的运行不存在或已结束"
	MsgInternalError    = "服务器内部错误，请稍后重试"
	MsgImportReadFailed = "读取导入文件失败"
)
