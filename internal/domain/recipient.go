package domain

import "time"

// RecipientStatus 收件人投递状态
type RecipientStatus string

const (
	// RecipientStatusPending 等待投递
	RecipientStatusPending RecipientStatus = "pending"
	// RecipientStatusSent 投递成功（对单次活动为终态）
	RecipientStatusSent RecipientStatus = "sent"
	// RecipientStatusFailed 投递失败，会在后续轮次重试
	RecipientStatusFailed RecipientStatus = "failed"
)

// Valid 判断状态取值是否合法
func (s RecipientStatus) Valid() bool {
	switch s {
	case RecipientStatusPending, RecipientStatusSent, RecipientStatusFailed:
		return true
	}
	return false
}

// Recipient 收件人
type Recipient struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string          `json:"email" gorm:"type:varchar(255);not null;index"`
	Name      string          `json:"name" gorm:"type:varchar(255)"`
	Status    RecipientStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
