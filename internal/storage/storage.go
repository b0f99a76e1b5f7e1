package storage

import (
	"errors"

	"mailblast/backend/internal/domain"
)

var (
	// ErrSenderNotFound 发信账号不存在
	ErrSenderNotFound = errors.New("sender not found")
	// ErrSenderExists 发信账号邮箱已存在
	ErrSenderExists = errors.New("sender already exists")
	// ErrRecipientNotFound 收件人不存在
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrTemplateNotFound 模板不存在
	ErrTemplateNotFound = errors.New("template not found")
	// ErrTemplateExists 模板名称已存在
	ErrTemplateExists = errors.New("template already exists")
)

// SenderRepository 定义发信账号数据存取操作。
type SenderRepository interface {
	SaveSender(sender *domain.Sender) error
	GetSender(id string) (*domain.Sender, error)
	GetSenderByEmail(email string) (*domain.Sender, error)
	ListSenders() ([]domain.Sender, error)
	ListActiveSenders() ([]domain.Sender, error)
	DeleteSender(id string) error
	ResetSenderCounts() error // 所有账号 sentCount 归零
}

// RecipientRepository 定义收件人数据存取操作。
type RecipientRepository interface {
	SaveRecipient(recipient *domain.Recipient) error
	SaveRecipients(recipients []*domain.Recipient) error
	GetRecipient(id string) (*domain.Recipient, error)
	// ListRecipients 分页查询，status 为 nil 时不过滤；返回当前页与总数
	ListRecipients(status *domain.RecipientStatus, page, pageSize int) ([]domain.Recipient, int, error)
	// ListRecipientsByStatus 按创建时间升序返回指定状态的全部收件人
	ListRecipientsByStatus(statuses ...domain.RecipientStatus) ([]domain.Recipient, error)
	CountRecipientsByStatus(status domain.RecipientStatus) (int, error)
	DeleteRecipient(id string) error
	DeleteAllRecipients() error
	ResetRecipientStatuses() error // 所有收件人状态重置为 pending
}

// TemplateRepository 定义邮件模板数据存取操作。
type TemplateRepository interface {
	SaveTemplate(template *domain.Template) error
	GetTemplate(id string) (*domain.Template, error)
	ListTemplates() ([]domain.Template, error)
	ListTemplatesByIDs(ids []string) ([]domain.Template, error)
	DeleteTemplate(id string) error
}

// DispatchLogRepository 定义投递历史数据存取操作。
type DispatchLogRepository interface {
	AppendDispatchLog(entry *domain.DispatchLog) error
	// ListDispatchLogs 按时间倒序返回最近 limit 条记录，limit<=0 时返回全部
	ListDispatchLogs(limit int) ([]domain.DispatchLog, error)
	ClearDispatchLogs() error
}

// Store 定义完整的存储接口。
type Store interface {
	SenderRepository
	RecipientRepository
	TemplateRepository
	DispatchLogRepository

	// 工具方法
	Close() error
	Health() error
}
