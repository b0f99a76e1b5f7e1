package domain

import "time"

// DispatchStatus 单次投递结果
type DispatchStatus string

const (
	// DispatchStatusSent 投递成功
	DispatchStatusSent DispatchStatus = "sent"
	// DispatchStatusFailed 投递失败
	DispatchStatusFailed DispatchStatus = "failed"
)

// DispatchLog 投递历史记录（只追加，引擎不修改不删除）
type DispatchLog struct {
	ID             string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderEmail    string         `json:"senderEmail" gorm:"type:varchar(255);index"`
	RecipientEmail string         `json:"recipientEmail" gorm:"type:varchar(255);index"`
	Status         DispatchStatus `json:"status" gorm:"type:varchar(20);index"`
	ErrorMessage   string         `json:"errorMessage,omitempty" gorm:"type:text"`
	CreatedAt      time.Time      `json:"createdAt" gorm:"index"`
}
